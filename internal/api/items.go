package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"marketplace/internal/domain"     // Importing domain models
	"marketplace/internal/repository" // Generic entity repository
	"marketplace/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateItemRequest represents a new item listing
type CreateItemRequest struct {
	Name        string   `json:"name" binding:"required"`        // Item name
	Description string   `json:"description"`                    // Item description
	Price       float64  `json:"price" binding:"required,gte=0"` // Unit price, non-negative
	Tax         *float64 `json:"tax"`                            // Optional tax amount
}

// paginationParams reads page and page_size from the query, clamped to
// sane defaults
func paginationParams(c *gin.Context) (int, int) {
	page := 1      // Default page
	pageSize := 20 // Default page size
	// If page exists in query
	if p := c.Query("page"); p != "" {
		// Convert page to integer
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// If page_size exists in query
	if ps := c.Query("page_size"); ps != "" {
		// Convert page_size to integer
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size if valid
		}
	}
	return page, pageSize
}

// ListItemsHandler returns one page of the public item catalog
func ListItemsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	items := repository.New[domain.Item](db) // Entity repository for items
	return func(c *gin.Context) {
		page, pageSize := paginationParams(c) // Pagination parameters
		ctx := context.Background()           // Context for Redis operations
		// Cache key for this page
		cacheKey := "items:page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		var cached struct {
			Items      []domain.Item `json:"items"`       // List of items
			Page       int           `json:"page"`        // Current page
			PageSize   int           `json:"page_size"`   // Page size
			Total      int64         `json:"total"`       // Total items
			TotalPages int           `json:"total_pages"` // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"items":       cached.Items,      // Cached items
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total items
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		// Fetch the page from the database
		list, total, err := items.List(c.Request.Context(), page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		resp := gin.H{
			"items":       list,       // List of items
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total items
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return the item page
	}
}

// GetItemHandler returns a single item by id
func GetItemHandler(db *gorm.DB) gin.HandlerFunc {
	items := repository.New[domain.Item](db) // Entity repository for items
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse item id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
			return
		}
		item, err := items.Get(c.Request.Context(), uint(id)) // Fetch the item
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item}) // Return the item
	}
}

// callerMerchant resolves the merchant profile of the authenticated user
func callerMerchant(c *gin.Context, db *gorm.DB) (*domain.Merchant, bool) {
	userID, exists := c.Get("userID") // Get userID from context
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	var merchant domain.Merchant // Merchant profile of the caller
	if err := db.Where("user_id = ?", userID).First(&merchant).Error; err != nil {
		// Merchant-role user without a profile is corruption, surface as 500
		logrus.WithFields(logrus.Fields{
			"user_id": userID,      // Caller user ID
			"error":   err.Error(), // Lookup failure
		}).Error("Merchant profile missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Merchant profile not found"})
		return nil, false
	}
	return &merchant, true
}

// CreateItemHandler lists a new item under the caller's merchant profile
func CreateItemHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	items := repository.New[domain.Item](db) // Entity repository for items
	return func(c *gin.Context) {
		merchant, ok := callerMerchant(c, db) // Resolve the caller's merchant row
		if !ok {
			return
		}
		var req CreateItemRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// The merchant link is fixed at creation time
		item := domain.Item{
			Name:        req.Name,        // Item name
			Description: req.Description, // Item description
			Price:       req.Price,       // Unit price
			Tax:         req.Tax,         // Optional tax amount
			MerchantID:  merchant.ID,     // Caller's merchant id
		}
		if err := items.Create(c.Request.Context(), &item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
			return
		}
		// Drop cached catalog pages so the new item shows up
		_ = utils.DeleteCacheByPrefix(context.Background(), rdb, "items:page:")
		c.JSON(http.StatusCreated, gin.H{"item": item}) // Return the new item
	}
}

// UpdateItemHandler updates the mutable fields of an item the caller owns.
// The merchant link never changes.
func UpdateItemHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	items := repository.New[domain.Item](db) // Entity repository for items
	return func(c *gin.Context) {
		merchant, ok := callerMerchant(c, db) // Resolve the caller's merchant row
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id")) // Parse item id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
			return
		}
		var req domain.UpdatedItem // Explicit mutable-field struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Reject negative prices up front
		if req.Price != nil && *req.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be non-negative"})
			return
		}
		// Ownership check: merchants only edit their own items
		existing, err := items.Get(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
			return
		}
		if existing.MerchantID != merchant.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your item"})
			return
		}
		// Apply only the listed mutable fields
		item, err := items.Updates(c.Request.Context(), uint(id), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
			return
		}
		// Invalidate cached catalog pages
		_ = utils.DeleteCacheByPrefix(context.Background(), rdb, "items:page:")
		c.JSON(http.StatusOK, gin.H{"item": item}) // Return the updated item
	}
}

// DeleteItemHandler removes an item the caller owns
func DeleteItemHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	items := repository.New[domain.Item](db) // Entity repository for items
	return func(c *gin.Context) {
		merchant, ok := callerMerchant(c, db) // Resolve the caller's merchant row
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id")) // Parse item id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
			return
		}
		// Ownership check before deleting
		existing, err := items.Get(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
			return
		}
		if existing.MerchantID != merchant.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your item"})
			return
		}
		if err := items.Delete(c.Request.Context(), uint(id)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}
		// Invalidate cached catalog pages
		_ = utils.DeleteCacheByPrefix(context.Background(), rdb, "items:page:")
		c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
	}
}
