package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"marketplace/internal/domain" // Importing domain models
	"marketplace/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// DepositRequest represents a deposit request
type DepositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"` // Deposit amount
}

// GetWalletHandler returns wallet info for the authenticated user
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()                                   // Context for Redis operations
		cacheKey := "wallet:user:" + strconv.Itoa(int(userID.(uint))) // Cache key for wallet
		var wallet domain.Wallet                                      // Wallet struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &wallet)     // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			// Return cached wallet
			c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			// Return not found if wallet doesn't exist
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, wallet, 60*time.Second)  // Cache the wallet for 60 seconds
		c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": false}) // Return wallet info
	}
}

// DepositHandler adds funds to the authenticated user's wallet
func DepositHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req DepositRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		var wallet domain.Wallet // Find user's wallet
		// Query wallet by user ID
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			// If wallet not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		// Update balance atomically
		if err := db.Model(&wallet).Update("balance", gorm.Expr("balance + ?", req.Amount)).Error; err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"amount":  req.Amount,  // Deposit amount
				"error":   err.Error(), // Error message
			}).Error("Deposit failed") // Log deposit failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Deposit failed"}) // Return internal server error
			return
		}
		// Log successful deposit
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,                          // User ID
			"amount":    req.Amount,                      // Deposit amount
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Deposit") // Log deposit success
		// Invalidate wallet cache
		ctx := context.Background()                                  // Context for Redis operations
		userKey := "wallet:user:" + strconv.Itoa(int(userID.(uint))) // Wallet cache key
		_ = utils.DeleteCache(ctx, rdb, userKey)                     // Invalidate wallet cache
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Deposit successful"})
	}
}
