package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingsUniqueConstraint = "bookings_treatment_date_patient_uniq"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS services (
		id    BIGSERIAL PRIMARY KEY,
		name  TEXT NOT NULL UNIQUE,
		slots TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id         UUID PRIMARY KEY,
		treatment  TEXT NOT NULL,
		date       TEXT NOT NULL,
		patient    TEXT NOT NULL,
		slot       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ` + bookingsUniqueConstraint + ` UNIQUE (treatment, date, patient)
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_date_idx ON bookings (date)`,
	`CREATE INDEX IF NOT EXISTS bookings_patient_idx ON bookings (patient)`,
	`CREATE TABLE IF NOT EXISTS users (
		email      TEXT PRIMARY KEY,
		role       TEXT NULL,
		attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables when missing. Safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
