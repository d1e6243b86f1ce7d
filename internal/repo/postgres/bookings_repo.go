package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBookingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{pool: pool, prom: prom}
}

func (r *BookingsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const bookingColumns = `id::text, treatment, date, patient, slot, created_at`

// CreateIfAbsent leans on the unique constraint: the insert is skipped on a
// conflict and the stored row is read back instead.
func (r *BookingsRepo) CreateIfAbsent(ctx context.Context, b booking.Booking) (booking.Booking, bool, error) {
	var insertedID string

	err := r.observe("bookings.create_if_absent", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO bookings (id, treatment, date, patient, slot, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT ON CONSTRAINT `+bookingsUniqueConstraint+` DO NOTHING
			 RETURNING id::text`,
			b.ID, b.Treatment, b.Date, b.Patient, b.Slot, b.CreatedAt,
		).Scan(&insertedID)
	})

	if err == nil {
		return b, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return booking.Booking{}, false, err
	}

	existing, err := r.getByKey(ctx, b.Key())
	if err != nil {
		return booking.Booking{}, false, fmt.Errorf("read existing booking: %w", err)
	}

	return existing, false, nil
}

func (r *BookingsRepo) getByKey(ctx context.Context, key booking.Key) (booking.Booking, error) {
	var b booking.Booking

	err := r.observe("bookings.get_by_key", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE treatment = $1 AND date = $2 AND patient = $3`,
			key.Treatment, key.Date, key.Patient,
		).Scan(&b.ID, &b.Treatment, &b.Date, &b.Patient, &b.Slot, &b.CreatedAt)
	})

	return b, err
}

func (r *BookingsRepo) ListByDate(ctx context.Context, date string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_date", `WHERE date = $1`, date)
}

func (r *BookingsRepo) ListByPatient(ctx context.Context, patient string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_patient", `WHERE patient = $1`, patient)
}

func (r *BookingsRepo) list(ctx context.Context, op, where string, arg string) ([]booking.Booking, error) {
	output := make([]booking.Booking, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+bookingColumns+` FROM bookings `+where+` ORDER BY created_at ASC, id ASC`, arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var b booking.Booking
			if err := rows.Scan(&b.ID, &b.Treatment, &b.Date, &b.Patient, &b.Slot, &b.CreatedAt); err != nil {
				return err
			}
			output = append(output, b)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}
