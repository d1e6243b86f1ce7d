package mongo

import (
	"context"

	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/geocoder89/doctorportal/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ServicesRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewServicesRepo(db *mongo.Database, prom *observability.Prom) *ServicesRepo {
	return &ServicesRepo{coll: db.Collection(servicesCollection), prom: prom}
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
		// ObjectIDs grow with insertion time, so _id order is catalog order
		cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var s service.Service
			if err := cur.Decode(&s); err != nil {
				return err
			}
			if s.Slots == nil {
				s.Slots = []string{}
			}
			output = append(output, s)
		}
		return cur.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}

func (r *ServicesRepo) ReplaceAll(ctx context.Context, services []service.Service) error {
	return r.observe("services.replace_all", func() error {
		if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
			return err
		}
		if len(services) == 0 {
			return nil
		}

		docs := make([]any, 0, len(services))
		for _, s := range services {
			docs = append(docs, s.Clone())
		}

		_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
		return err
	})
}
