package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// itemsRouter wires the catalog routes with the merchant guard on writes
func itemsRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.GET("/items", ListItemsHandler(db, nil))
	r.GET("/items/:id", GetItemHandler(db))
	guarded := r.Group("/items")
	guarded.Use(middleware.JWTAuthMiddleware(testJWTSecret), middleware.MerchantOnlyMiddleware(db))
	guarded.POST("", CreateItemHandler(db, nil))
	guarded.PUT("/:id", UpdateItemHandler(db, nil))
	guarded.DELETE("/:id", DeleteItemHandler(db, nil))
	return r
}

func tokenFor(t *testing.T, user domain.User) string {
	t.Helper()
	token, err := utils.GenerateJWT(user.ID, user.Role, testJWTSecret)
	require.NoError(t, err)
	return token
}

func TestCreateItemAssignsCallerMerchant(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	r := itemsRouter(db)

	w := postJSON(r, http.MethodPost, "/items", gin.H{
		"name": "widget", "description": "a widget", "price": 30.0,
	}, tokenFor(t, seller))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var merchant domain.Merchant
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&merchant).Error)
	var item domain.Item
	require.NoError(t, db.Where("name = ?", "widget").First(&item).Error)
	// The item belongs to the caller's merchant, not anything client-supplied
	assert.Equal(t, merchant.ID, item.MerchantID)
}

func TestCreateItemForbiddenForCustomers(t *testing.T) {
	db := setupDB(t)
	buyer := createAccount(t, db, "buyer", domain.RoleCustomer, 0)
	r := itemsRouter(db)

	w := postJSON(r, http.MethodPost, "/items", gin.H{
		"name": "widget", "price": 30.0,
	}, tokenFor(t, buyer))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateItemRejectsNegativePrice(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	r := itemsRouter(db)

	w := postJSON(r, http.MethodPost, "/items", gin.H{
		"name": "widget", "price": -5.0,
	}, tokenFor(t, seller))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateItemKeepsMerchantLink(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	var merchant domain.Merchant
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&merchant).Error)
	item := domain.Item{Name: "widget", Price: 30, MerchantID: merchant.ID}
	require.NoError(t, db.Create(&item).Error)
	r := itemsRouter(db)

	w := postJSON(r, http.MethodPut, fmt.Sprintf("/items/%d", item.ID), gin.H{
		"name": "gadget", "price": 45.0,
	}, tokenFor(t, seller))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated domain.Item
	require.NoError(t, db.First(&updated, item.ID).Error)
	assert.Equal(t, "gadget", updated.Name)
	assert.Equal(t, 45.0, updated.Price)
	// Merchant link is immutable
	assert.Equal(t, merchant.ID, updated.MerchantID)
}

func TestUpdateItemOwnedByOtherMerchantIsForbidden(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	rival := createAccount(t, db, "rival", domain.RoleMerchant, 0)
	var merchant domain.Merchant
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&merchant).Error)
	item := domain.Item{Name: "widget", Price: 30, MerchantID: merchant.ID}
	require.NoError(t, db.Create(&item).Error)
	r := itemsRouter(db)

	w := postJSON(r, http.MethodPut, fmt.Sprintf("/items/%d", item.ID), gin.H{
		"price": 1.0,
	}, tokenFor(t, rival))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(r, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), nil, tokenFor(t, rival))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListItemsPaginates(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	var merchant domain.Merchant
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&merchant).Error)
	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&domain.Item{
			Name: fmt.Sprintf("item%02d", i), Price: 1, MerchantID: merchant.ID,
		}).Error)
	}
	r := itemsRouter(db)

	w := postJSON(r, http.MethodGet, "/items?page=2&page_size=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items      []domain.Item `json:"items"`
		Page       int           `json:"page"`
		Total      int64         `json:"total"`
		TotalPages int           `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 10)
	assert.Equal(t, 2, resp.Page)
	assert.EqualValues(t, 25, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestGetItemNotFound(t *testing.T) {
	db := setupDB(t)
	r := itemsRouter(db)
	w := postJSON(r, http.MethodGet, "/items/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteItemRemovesIt(t *testing.T) {
	db := setupDB(t)
	seller := createAccount(t, db, "seller", domain.RoleMerchant, 0)
	var merchant domain.Merchant
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&merchant).Error)
	item := domain.Item{Name: "widget", Price: 30, MerchantID: merchant.ID}
	require.NoError(t, db.Create(&item).Error)
	r := itemsRouter(db)

	w := postJSON(r, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), nil, tokenFor(t, seller))
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&domain.Item{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
