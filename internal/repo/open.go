package repo

import (
	"context"
	"fmt"

	"github.com/geocoder89/doctorportal/internal/config"
	"github.com/geocoder89/doctorportal/internal/db"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/geocoder89/doctorportal/internal/repo/memory"
	"github.com/geocoder89/doctorportal/internal/repo/mongo"
	"github.com/geocoder89/doctorportal/internal/repo/postgres"
)

// Open connects the backend named by cfg.StoreDriver and prepares its schema
// or indexes.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}

		return &Store{
			Driver:   cfg.StoreDriver,
			Services: postgres.NewServicesRepo(pool, prom),
			Bookings: postgres.NewBookingsRepo(pool, prom),
			Users:    postgres.NewUsersRepo(pool, prom),
			ping:     pool.Ping,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StoreMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		database := client.Database(cfg.MongoDB)

		if err := mongo.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}

		return &Store{
			Driver:   cfg.StoreDriver,
			Services: mongo.NewServicesRepo(database, prom),
			Bookings: mongo.NewBookingsRepo(database, prom),
			Users:    mongo.NewUsersRepo(database, prom),
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			},
			close: client.Disconnect,
		}, nil

	case config.StoreMemory:
		return NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// NewMemoryStore is a process-local store. Used for dev and tests.
func NewMemoryStore() *Store {
	return &Store{
		Driver:   config.StoreMemory,
		Services: memory.NewServicesRepo(),
		Bookings: memory.NewBookingsRepo(),
		Users:    memory.NewUsersRepo(),
	}
}
