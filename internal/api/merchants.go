package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"marketplace/internal/domain"     // Importing domain models
	"marketplace/internal/repository" // Generic entity repository

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// ListMerchantsHandler returns one page of merchants
func ListMerchantsHandler(db *gorm.DB) gin.HandlerFunc {
	merchants := repository.New[domain.Merchant](db) // Entity repository for merchants
	return func(c *gin.Context) {
		page, pageSize := paginationParams(c) // Pagination parameters
		// Fetch the page from the database
		list, total, err := merchants.List(c.Request.Context(), page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch merchants"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"merchants":   list,       // List of merchants
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total merchants
			"total_pages": totalPages, // Total pages
		})
	}
}

// GetMerchantHandler returns a single merchant by id
func GetMerchantHandler(db *gorm.DB) gin.HandlerFunc {
	merchants := repository.New[domain.Merchant](db) // Entity repository for merchants
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse merchant id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid merchant id"})
			return
		}
		merchant, err := merchants.Get(c.Request.Context(), uint(id)) // Fetch the merchant
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Merchant not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch merchant"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"merchant": merchant}) // Return the merchant
	}
}
