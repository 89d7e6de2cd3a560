package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/domain"
	"marketplace/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:mw_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // Keep the shared in-memory DB alive
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Wallet{}))
	return db
}

func serve(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddlewareSetsPrincipal(t *testing.T) {
	r := gin.New()
	r.Use(JWTAuthMiddleware(secret))
	r.GET("/ping", func(c *gin.Context) {
		userID, _ := c.Get("userID")
		role, _ := c.Get("role")
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
	})

	token, err := utils.GenerateJWT(3, domain.RoleMerchant, secret)
	require.NoError(t, err)

	w := serve(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":3`)
	assert.Contains(t, w.Body.String(), `"role":"merchant"`)
}

func TestJWTAuthMiddlewareRejectsBadTokens(t *testing.T) {
	r := gin.New()
	r.Use(JWTAuthMiddleware(secret))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Missing header
	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	// Wrong scheme
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	// Token signed with another secret
	token, err := utils.GenerateJWT(3, domain.RoleCustomer, "other")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer "+token).Code)
}

func TestMerchantOnlyMiddleware(t *testing.T) {
	db := setupDB(t)
	merchant := domain.User{Username: "seller", Password: "x", Role: domain.RoleMerchant}
	require.NoError(t, db.Create(&merchant).Error)
	customer := domain.User{Username: "buyer", Password: "x", Role: domain.RoleCustomer}
	require.NoError(t, db.Create(&customer).Error)

	r := gin.New()
	r.Use(JWTAuthMiddleware(secret), MerchantOnlyMiddleware(db))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	merchantToken, err := utils.GenerateJWT(merchant.ID, merchant.Role, secret)
	require.NoError(t, err)
	customerToken, err := utils.GenerateJWT(customer.ID, customer.Role, secret)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(r, "Bearer "+merchantToken).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+customerToken).Code)

	// A token for a deleted user is refused even though it verifies
	require.NoError(t, db.Delete(&domain.User{}, merchant.ID).Error)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+merchantToken).Code)
}
