package db

import (
	"context"
	"strings"

	"github.com/geocoder89/doctorportal/internal/domain/user"
)

type AdminStore interface {
	UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error)
	SetRole(ctx context.Context, email, role string) (user.UpdateResult, error)
}

// EnsureAdminUser makes sure email exists and carries the admin role. It is a
// no-op for an empty email and safe to repeat.
func EnsureAdminUser(ctx context.Context, users AdminStore, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}

	if _, err := users.UpsertProfile(ctx, email, user.Profile{}); err != nil {
		return false, err
	}

	res, err := users.SetRole(ctx, email, user.RoleAdmin)
	if err != nil {
		return false, err
	}

	return res.ModifiedCount > 0, nil
}
