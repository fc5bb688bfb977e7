package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserAuth enforces bearer JWT tokens signed with HS256 and stores the
// claims in the request context under "claims".
func UserAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// UserID extracts the authenticated user id placed by UserAuth, or ""
// when the request was not authenticated.
func UserID(c *gin.Context) string {
	v, ok := c.Get("claims")
	if !ok {
		return ""
	}
	claims, ok := v.(Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
