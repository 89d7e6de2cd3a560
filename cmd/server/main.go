package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"marketplace/internal/api"        // Custom package for API handlers
	"marketplace/internal/config"     // Custom package for configuration
	"marketplace/internal/middleware" // Custom package for middleware
	"marketplace/internal/service"    // Purchase workflow

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	purchases := service.NewPurchaseService(db, redisClient) // The purchase workflow

	// Registration and login
	r.POST("/users/register_merchant", api.RegisterMerchantHandler(db)) // Merchant registration endpoint
	r.POST("/users/register_customer", api.RegisterCustomerHandler(db)) // Customer registration endpoint
	r.GET("/users/login", api.LoginHandler(db, cfg.JWTSecret))          // Login endpoint

	// Account routes (protected by JWT)
	userGroup := r.Group("/users")
	userGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	userGroup.GET("/me", api.MeHandler(db))                   // Current account endpoint
	userGroup.PUT("/password", api.ChangePasswordHandler(db)) // Password change endpoint

	// Public catalog reads
	r.GET("/items", api.ListItemsHandler(db, redisClient)) // Item catalog endpoint
	r.GET("/items/:id", api.GetItemHandler(db))            // Single item endpoint
	r.GET("/merchants", api.ListMerchantsHandler(db))      // Merchant list endpoint
	r.GET("/merchants/:id", api.GetMerchantHandler(db))    // Single merchant endpoint

	// Item writes (merchants only)
	itemGroup := r.Group("/items")
	itemGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.MerchantOnlyMiddleware(db))
	itemGroup.POST("", api.CreateItemHandler(db, redisClient))       // Create item endpoint
	itemGroup.PUT("/:id", api.UpdateItemHandler(db, redisClient))    // Update item endpoint
	itemGroup.DELETE("/:id", api.DeleteItemHandler(db, redisClient)) // Delete item endpoint

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	walletGroup.GET("", api.GetWalletHandler(db, redisClient))        // Get wallet endpoint
	walletGroup.POST("/deposit", api.DepositHandler(db, redisClient)) // Deposit endpoint

	// Purchase routes (protected by JWT, role checked in the workflow)
	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authed.POST("/buy", api.BuyHandler(purchases))                                 // Purchase endpoint
	authed.GET("/transactions", api.GetTransactionHistoryHandler(db, redisClient)) // Purchase history endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
