package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by Authenticate / WithUser.
const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxDisplayName = "display_name"
	CtxUserDBID    = "user_db_id"
	CtxUserRole    = "user_role"
)

// UserFirebaseUID extracts the caller's identity UID from the Gin context.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// UserDBID extracts the caller's users-table row id.
func UserDBID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}

// UserRole extracts the caller's role as stored on the mirror row.
func UserRole(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserRole))
}
