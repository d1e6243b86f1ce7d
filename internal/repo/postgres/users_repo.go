package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `email, COALESCE(role, ''), attributes, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(&u.Email, &u.Role, &u.Attributes, &u.CreatedAt, &u.UpdatedAt)
	if u.Attributes == nil {
		u.Attributes = map[string]any{}
	}
	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	output := make([]user.User, 0)

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, email ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			output = append(output, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// UpsertProfile merges the profile into attributes with jsonb ||. The WHERE
// on the conflict branch skips the write when nothing would change, which is
// how an identical save reports matched without modified.
func (r *UsersRepo) UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error) {
	attrs := map[string]any(profile.Sanitize())
	now := time.Now().UTC()

	var inserted bool

	err := r.observe("users.upsert_profile", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (email, attributes, created_at, updated_at)
			 VALUES ($1, $2, $3, $3)
			 ON CONFLICT (email) DO UPDATE
			   SET attributes = users.attributes || EXCLUDED.attributes,
			       updated_at = EXCLUDED.updated_at
			   WHERE users.attributes IS DISTINCT FROM users.attributes || EXCLUDED.attributes
			 RETURNING (xmax = 0) AS inserted`,
			email, attrs, now,
		).Scan(&inserted)
	})

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return user.UpdateResult{MatchedCount: 1}, nil
	case err != nil:
		return user.UpdateResult{}, err
	case inserted:
		return user.UpdateResult{UpsertedCount: 1, UpsertedID: email}, nil
	default:
		return user.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
}

func (r *UsersRepo) SetRole(ctx context.Context, email, role string) (user.UpdateResult, error) {
	var affected int64

	err := r.observe("users.set_role", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET role = $2, updated_at = now()
			 WHERE email = $1 AND role IS DISTINCT FROM $2`,
			email, role,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return user.UpdateResult{}, err
	}

	if affected > 0 {
		return user.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}

	var exists bool
	err = r.observe("users.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	})
	if err != nil {
		return user.UpdateResult{}, err
	}

	if exists {
		return user.UpdateResult{MatchedCount: 1}, nil
	}
	return user.UpdateResult{}, nil
}
