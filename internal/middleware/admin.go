package middleware

import (
	"net/http"

	"likesio/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired rejects any principal whose role is not ADMIN. Must run after
// AuthRequired, which seeds the role in the context.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
