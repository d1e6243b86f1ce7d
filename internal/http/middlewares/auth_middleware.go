package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/doctorportal/internal/actorctx"
	"github.com/geocoder89/doctorportal/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth: no Authorization header is 401, anything that fails to verify
// is 403.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
			return
		}

		if !m.authenticate(c, header) {
			return
		}
		c.Next()
	}
}

// OptionalAuth verifies a token when one is sent and lets anonymous requests
// through untouched.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		if !m.authenticate(c, header) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, header string) bool {
	claims, err := m.jwt.VerifyAccessToken(bearerToken(header))
	if err != nil {
		abortWithError(c, http.StatusForbidden, "forbidden", "Invalid or expired access token")
		return false
	}

	c.Set(CtxEmail, claims.Email)
	c.Request = c.Request.WithContext(actorctx.WithEmail(c.Request.Context(), claims.Email))

	return true
}

// "Bearer <token>" -> "<token>". Anything without a second field yields ""
// which never verifies.
func bearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
