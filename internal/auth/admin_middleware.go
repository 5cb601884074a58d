package auth

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware creates a gin middleware that only lets the given user IDs through.
// It must be used AFTER the standard AuthMiddleware.
func AdminMiddleware(adminIDs []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		if !slices.Contains(adminIDs, userID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}
