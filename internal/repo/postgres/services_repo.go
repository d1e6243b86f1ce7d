package postgres

import (
	"context"

	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServicesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewServicesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ServicesRepo {
	return &ServicesRepo{pool: pool, prom: prom}
}

func (r *ServicesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ServicesRepo) List(ctx context.Context) ([]service.Service, error) {
	output := make([]service.Service, 0)

	err := r.observe("services.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT name, slots FROM services ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s service.Service
			if err := rows.Scan(&s.Name, &s.Slots); err != nil {
				return err
			}
			if s.Slots == nil {
				s.Slots = []string{}
			}
			output = append(output, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}

// ReplaceAll swaps the whole catalog in one transaction. Ids are reassigned in
// the given order so List keeps it.
func (r *ServicesRepo) ReplaceAll(ctx context.Context, services []service.Service) error {
	return r.observe("services.replace_all", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, `DELETE FROM services`); err != nil {
			return err
		}

		for _, s := range services {
			slots := s.Slots
			if slots == nil {
				slots = []string{}
			}
			if _, err := tx.Exec(ctx, `INSERT INTO services (name, slots) VALUES ($1, $2)`, s.Name, slots); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}
