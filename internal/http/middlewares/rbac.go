package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// RequireAdmin loads the caller's own record by the token email. Roles are
// not carried in the token, so a promotion takes effect on the next request.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := EmailFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		requester, err := users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortWithError(c, http.StatusForbidden, "forbidden", "Admin role required")
				return
			}
			slog.Default().ErrorContext(c.Request.Context(), "rbac.lookup_failed", "email", email, "err", err)
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not verify role")
			return
		}

		if !requester.IsAdmin() {
			abortWithError(c, http.StatusForbidden, "forbidden", "Admin role required")
			return
		}
		c.Next()
	}
}
