package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const RoleAdmin = "admin"

var ErrNotFound = errors.New("user not found")

// User is a portal account keyed by email. Profile fields the client sends
// are kept in Attributes and rendered flat next to email and role.
type User struct {
	Email      string
	Role       string
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Attributes)+4)

	for k, v := range u.Attributes {
		out[k] = v
	}

	out["email"] = u.Email

	if u.Role != "" {
		out["role"] = u.Role
	}
	if !u.CreatedAt.IsZero() {
		out["createdAt"] = u.CreatedAt
	}
	if !u.UpdatedAt.IsZero() {
		out["updatedAt"] = u.UpdatedAt
	}

	return json.Marshal(out)
}

// Profile is the free-form body of a profile save.
type Profile map[string]any

// keys a client can never write through a profile save
var reservedKeys = []string{"_id", "id", "email", "role", "createdAt", "updatedAt"}

// Sanitize drops reserved keys. Role only changes through promotion and
// email always comes from the path.
func (p Profile) Sanitize() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range reservedKeys {
		delete(out, k)
	}

	return out
}

// Validate rejects field names no backend can store, at any depth. Nested
// objects and objects inside arrays are checked too.
func (p Profile) Validate() error {
	return validateFields("", p)
}

func validateFields(prefix string, fields map[string]any) error {
	for k, v := range fields {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return fmt.Errorf("invalid profile field %q", path)
		}
		if err := validateValue(path, v); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, v any) error {
	switch val := v.(type) {
	case map[string]any:
		return validateFields(path, val)
	case []any:
		for i, item := range val {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateResult mirrors the write outcome of an update-by-filter.
type UpdateResult struct {
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}
