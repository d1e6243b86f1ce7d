package user

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileSanitize_DropsReservedKeys(t *testing.T) {
	in := Profile{"name": "Ann", "role": "admin", "email": "x@y.com", "_id": "1"}

	out := in.Sanitize()

	assert.Equal(t, Profile{"name": "Ann"}, out)
	assert.Equal(t, "admin", in["role"], "input is left alone")
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, Profile{"name": "Ann", "phone": "1"}.Validate())
	assert.Error(t, Profile{"$set": 1}.Validate())
	assert.Error(t, Profile{"a.b": 1}.Validate())
	assert.Error(t, Profile{"": 1}.Validate())
}

func TestProfileValidate_Nested(t *testing.T) {
	ok := Profile{
		"address": map[string]any{"city": "Dhaka", "geo": map[string]any{"lat": 23.8}},
		"phones":  []any{"1", map[string]any{"kind": "work"}},
	}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name    string
		profile Profile
		path    string
	}{
		{
			name:    "dollar_in_object",
			profile: Profile{"address": map[string]any{"$where": "1"}},
			path:    `"address.$where"`,
		},
		{
			name:    "dot_two_levels_down",
			profile: Profile{"address": map[string]any{"geo": map[string]any{"a.b": 1}}},
			path:    `"address.geo.a.b"`,
		},
		{
			name:    "object_inside_array",
			profile: Profile{"phones": []any{"1", map[string]any{"$set": "x"}}},
			path:    `"phones[1].$set"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestUserMarshalJSON_Flat(t *testing.T) {
	u := User{
		Email:      "a@b.com",
		Role:       RoleAdmin,
		Attributes: map[string]any{"name": "Ann"},
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "a@b.com", got["email"])
	assert.Equal(t, "admin", got["role"])
	assert.Equal(t, "Ann", got["name"])
	assert.Contains(t, got, "createdAt")
	assert.NotContains(t, got, "updatedAt")
}

func TestUserMarshalJSON_OmitsEmptyRole(t *testing.T) {
	raw, err := json.Marshal(User{Email: "a@b.com"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"email":"a@b.com"}`, string(raw))
}
