package middleware

import (
	"net/http" // HTTP status codes

	"marketplace/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// MerchantOnlyMiddleware checks the user's role from the database on each
// request. The role in the token is enough for fast paths, but item writes
// re-read the user row so a revoked merchant cannot keep listing items on
// an old token.
func MerchantOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// If user not found or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Merchant access required"})
			return
		}
		// Check if user role is merchant
		if user.Role != domain.RoleMerchant {
			// If not merchant, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Merchant access required"})
			return
		}
		// If merchant, proceed to the next handler
		c.Next()
	}
}
