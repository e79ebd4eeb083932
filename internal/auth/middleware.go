package auth

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// Authenticate validates the caller's identity and stores uid/email/name
// in the Gin context.
//
// With a Firebase client it verifies the Bearer ID token. With a nil
// client (no credentials configured) it falls back to trusting the
// X-User-Id header, defaulting to "demo-user". Development only.
func Authenticate(authClient *auth.Client) gin.HandlerFunc {
	if authClient == nil {
		return devAuthenticate()
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			c.Abort()
			return
		}

		decoded, err := authClient.VerifyIDToken(context.Background(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, decoded.UID)
		if email, ok := decoded.Claims["email"].(string); ok {
			c.Set(CtxEmail, email)
		}
		if name, ok := decoded.Claims["name"].(string); ok {
			c.Set(CtxDisplayName, name)
		}

		c.Next()
	}
}

func devAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = "demo-user"
		}

		c.Set(CtxFirebaseUID, uid)
		c.Set(CtxEmail, c.GetHeader("X-User-Email"))
		c.Set(CtxDisplayName, c.GetHeader("X-User-Name"))

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}

// RequireRole aborts with 403 unless the caller's role (set by WithUser)
// is one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		have := UserRole(c)
		for _, r := range roles {
			if have == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "insufficient role"})
		c.Abort()
	}
}
