package middlewares

import (
	"context"
	"net/http"

	"github.com/coursebank/courseapi/internal/auth"
	"github.com/coursebank/courseapi/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, header string) auth.Result
}

type AuthMiddleware struct {
	verifier CredentialVerifier
}

func NewAuthMiddleware(verifier CredentialVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth is the single authentication gate for every route that needs an
// identity. Whatever went wrong (no header, unknown email, bad password), the
// client sees one 401 shape; the handler body is never reached.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := m.verifier.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))

		if !result.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Access denied",
				},
			})
			return
		}

		c.Set(ctxPrincipalKey, result.Principal)

		c.Next()
	}
}

// PrincipalFromContext returns the authenticated user stashed by RequireAuth,
// so handlers don't need to know the magic key.
func PrincipalFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxPrincipalKey)
	if !ok {
		return user.User{}, false
	}

	principal, ok := v.(user.User)
	return principal, ok
}
