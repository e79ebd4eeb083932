package auth

import (
	"net/http"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/users"
	"github.com/gin-gonic/gin"
)

// WithUser upserts the authenticated caller into the users table and
// stores the row id and role in the Gin context. Must run after
// Authenticate.
func WithUser(userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := UserFirebaseUID(c)
		if fuid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
			c.Abort()
			return
		}

		uid, role, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetString(CtxEmail),
			DisplayName: c.GetString(CtxDisplayName),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxUserDBID, uid)
		c.Set(CtxUserRole, role)
		c.Next()
	}
}
