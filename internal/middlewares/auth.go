package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty/internal/service"
)

const identityKey = "identity"

// IdentityMiddleware resolves the bearer token (header, or query param for
// websocket upgrades) into an Identity. A missing token is not an error:
// the request proceeds anonymously so login and signup stay reachable. An
// invalid or stale token is rejected here.
func IdentityMiddleware(auth service.IAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			token = c.Query("token")
		}

		identity, err := auth.ResolveIdentity(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredential.Error()})
			c.Abort()
			return
		}

		if identity != nil {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

// CurrentIdentity returns the resolved identity, or nil for anonymous
// requests.
func CurrentIdentity(c *gin.Context) *service.Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*service.Identity)
	if !ok {
		return nil
	}
	return identity
}
