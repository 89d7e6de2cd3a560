package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// buyRouter wires the /buy route behind the real JWT middleware
func buyRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	purchases := service.NewPurchaseService(db, nil)
	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(testJWTSecret))
	authed.POST("/buy", BuyHandler(purchases))
	return r
}

// doBuy posts a purchase request as the given user
func doBuy(t *testing.T, r *gin.Engine, user domain.User, itemID uint) *httptest.ResponseRecorder {
	t.Helper()
	token, err := utils.GenerateJWT(user.ID, user.Role, testJWTSecret)
	require.NoError(t, err)
	body, _ := json.Marshal(gin.H{"item_id": itemID})
	req := httptest.NewRequest(http.MethodPost, "/buy", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sellItem(t *testing.T, db *gorm.DB, seller domain.User, price float64) domain.Item {
	t.Helper()
	var merchant domain.Merchant
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&merchant).Error)
	item := domain.Item{Name: "widget", Price: price, MerchantID: merchant.ID}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func TestBuyReturnsTransaction(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	buyer := createAccount(t, db, "buyer", domain.RoleCustomer, 100)
	item := sellItem(t, db, seller, 30)
	r := buyRouter(db)

	w := doBuy(t, r, buyer, item.ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, item.ID, resp.Transaction.ItemID)
	assert.Equal(t, 30.0, resp.Transaction.Price)
	assert.NotZero(t, resp.Transaction.ID)
}

func TestBuyForbiddenForMerchantRole(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	item := sellItem(t, db, seller, 30)
	r := buyRouter(db)

	// The seller tries to buy its own item
	w := doBuy(t, r, seller, item.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBuyMissingItemIs404(t *testing.T) {
	db := setupDB(t)
	buyer := createAccount(t, db, "buyer", domain.RoleCustomer, 100)
	r := buyRouter(db)

	w := doBuy(t, r, buyer, 12345)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuyInsufficientFundsIs422(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	buyer := createAccount(t, db, "buyer", domain.RoleCustomer, 10)
	item := sellItem(t, db, seller, 30)
	r := buyRouter(db)

	w := doBuy(t, r, buyer, item.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Balances untouched
	var wallet domain.Wallet
	require.NoError(t, db.Where("user_id = ?", buyer.ID).First(&wallet).Error)
	assert.Equal(t, 10.0, wallet.Balance)
}

func TestBuyMissingWalletIs500(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	buyer := createAccount(t, db, "buyer", domain.RoleCustomer, 100)
	item := sellItem(t, db, seller, 30)
	// Corrupt the data: the merchant's wallet disappears
	require.NoError(t, db.Where("user_id = ?", seller.ID).Delete(&domain.Wallet{}).Error)
	r := buyRouter(db)

	w := doBuy(t, r, buyer, item.ID)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBuyRequiresToken(t *testing.T) {
	db := setupDB(t)
	r := buyRouter(db)
	body, _ := json.Marshal(gin.H{"item_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/buy", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBuyRejectsMalformedBody(t *testing.T) {
	db := setupDB(t)
	buyer := createAccount(t, db, "buyer", domain.RoleCustomer, 100)
	r := buyRouter(db)

	token, err := utils.GenerateJWT(buyer.ID, buyer.Role, testJWTSecret)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/buy", bytes.NewReader([]byte("{")))
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
