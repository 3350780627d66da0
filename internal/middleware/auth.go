package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

const identityKey = "identity"

// Resolver turns a bearer token into a caller identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || token == "null" {
		return "", false
	}
	return token, true
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		identity, err := r.Resolve(c.Request.Context(), token)
		if err != nil {
			status := apperr.Status(err)
			if status == http.StatusInternalServerError {
				logger.ErrorWithStack(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous or badly authenticated requests through unchanged.
func OptionalAuth(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			identity, err := r.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Set(identityKey, identity)
			} else {
				logger.Debugf("optional auth ignored: %v", err)
			}
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
	}
}

func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
