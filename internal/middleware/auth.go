package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/model"
)

const identityKey = "identity"

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's identity in the gin context.
func JWTAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "missing bearer token",
			})
			return
		}
		identity, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "invalid or expired token",
			})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	allowed := make(map[model.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok || !allowed[identity.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "insufficient role",
			})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*auth.Identity)
	return identity, ok
}
