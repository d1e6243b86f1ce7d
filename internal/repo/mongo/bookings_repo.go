package mongo

import (
	"context"
	"errors"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingsRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewBookingsRepo(db *mongo.Database, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{coll: db.Collection(bookingsCollection), prom: prom}
}

func (r *BookingsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func keyFilter(k booking.Key) bson.D {
	return bson.D{
		{Key: "treatment", Value: k.Treatment},
		{Key: "date", Value: k.Date},
		{Key: "patient", Value: k.Patient},
	}
}

// CreateIfAbsent is a single upsert with $setOnInsert. Returning the
// pre-image means "no document" signals our insert won.
func (r *BookingsRepo) CreateIfAbsent(ctx context.Context, b booking.Booking) (booking.Booking, bool, error) {
	var existing booking.Booking

	err := r.observe("bookings.create_if_absent", func() error {
		update := bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: b.ID},
			{Key: "slot", Value: b.Slot},
			{Key: "createdAt", Value: b.CreatedAt},
		}}}

		opts := options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.Before)

		return r.coll.FindOneAndUpdate(ctx, keyFilter(b.Key()), update, opts).Decode(&existing)
	})

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return b, true, nil
	case mongo.IsDuplicateKeyError(err):
		// two upserts raced past the filter; the loser reads the winner
		existing, err = r.getByKey(ctx, b.Key())
		if err != nil {
			return booking.Booking{}, false, err
		}
		return existing, false, nil
	case err != nil:
		return booking.Booking{}, false, err
	}

	return existing, false, nil
}

func (r *BookingsRepo) getByKey(ctx context.Context, key booking.Key) (booking.Booking, error) {
	var b booking.Booking

	err := r.observe("bookings.get_by_key", func() error {
		return r.coll.FindOne(ctx, keyFilter(key)).Decode(&b)
	})
	return b, err
}

func (r *BookingsRepo) ListByDate(ctx context.Context, date string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_date", bson.D{{Key: "date", Value: date}})
}

func (r *BookingsRepo) ListByPatient(ctx context.Context, patient string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_patient", bson.D{{Key: "patient", Value: patient}})
}

func (r *BookingsRepo) list(ctx context.Context, op string, filter bson.D) ([]booking.Booking, error) {
	output := make([]booking.Booking, 0)

	err := r.observe(op, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &output)
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}
