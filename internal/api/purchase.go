package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"marketplace/internal/domain"  // Importing domain models
	"marketplace/internal/service" // Purchase workflow

	"github.com/gin-gonic/gin" // Gin web framework
)

// BuyRequest represents a purchase request
type BuyRequest struct {
	ItemID      uint   `json:"item_id" binding:"required"` // Item to purchase
	Description string `json:"description"`                // Optional note
}

// BuyHandler runs the purchase workflow for the authenticated principal
// and maps its error taxonomy onto HTTP statuses
func BuyHandler(purchases *service.PurchaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		role, hasRole := c.Get("role")    // Get role from context
		// Both come from the JWT middleware
		if !exists || !hasRole {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req BuyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		principal := domain.Principal{ID: userID.(uint), Role: role.(domain.Role)} // The authenticated buyer
		// Run the workflow
		record, err := purchases.Purchase(c.Request.Context(), principal, req.ItemID, req.Description)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrForbidden):
				c.JSON(http.StatusForbidden, gin.H{"error": "Only customers may purchase"})
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			case errors.Is(err, domain.ErrInsufficientFunds):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Insufficient funds"})
			default:
				// Invariant violations and exhausted retries surface as 500
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Purchase failed"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": record}) // Return the recorded transaction
	}
}
