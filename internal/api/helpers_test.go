package api

import (
	"fmt"
	"testing"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

// setupDB opens a private in-memory database with the full schema
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // Keep the shared in-memory DB alive
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Wallet{}, &domain.Merchant{},
		&domain.Customer{}, &domain.Item{}, &domain.Transaction{},
	))
	return db
}

// createAccount inserts a user with wallet and role profile, returning the user
func createAccount(t *testing.T, db *gorm.DB, username string, role domain.Role, balance float64) domain.User {
	t.Helper()
	user := domain.User{Username: username, Password: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&domain.Wallet{UserID: user.ID, Balance: balance}).Error)
	if role == domain.RoleMerchant {
		require.NoError(t, db.Create(&domain.Merchant{Name: username, UserID: user.ID}).Error)
	} else {
		require.NoError(t, db.Create(&domain.Customer{Name: username, UserID: user.ID}).Error)
	}
	return user
}

func init() {
	gin.SetMode(gin.TestMode)
}
