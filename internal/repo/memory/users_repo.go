package memory

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/geocoder89/doctorportal/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
	order []string
	now   func() time.Time
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
		now:   time.Now,
	}
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.order))
	for _, email := range r.order {
		out = append(out, copyUser(r.items[email]))
	}
	return out, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return copyUser(u), nil
}

// UpsertProfile merges profile into the stored attributes. Saving the same
// profile twice reports a match without a modification.
func (r *UsersRepo) UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error) {
	attrs := profile.Sanitize()
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[email]
	if !ok {
		u = user.User{
			Email:      email,
			Attributes: map[string]any(attrs),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.items[email] = u
		r.order = append(r.order, email)

		return user.UpdateResult{UpsertedCount: 1, UpsertedID: email}, nil
	}

	changed := false
	merged := copyAttrs(u.Attributes)
	for k, v := range attrs {
		if old, exists := merged[k]; !exists || !reflect.DeepEqual(old, v) {
			merged[k] = v
			changed = true
		}
	}

	if !changed {
		return user.UpdateResult{MatchedCount: 1}, nil
	}

	u.Attributes = merged
	u.UpdatedAt = now
	r.items[email] = u

	return user.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *UsersRepo) SetRole(ctx context.Context, email, role string) (user.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[email]
	if !ok {
		return user.UpdateResult{}, nil
	}
	if u.Role == role {
		return user.UpdateResult{MatchedCount: 1}, nil
	}

	u.Role = role
	u.UpdatedAt = r.now().UTC()
	r.items[email] = u

	return user.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func copyUser(u user.User) user.User {
	u.Attributes = copyAttrs(u.Attributes)
	return u
}

func copyAttrs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
