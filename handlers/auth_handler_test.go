package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mustafateksen/virtue-local-admin-dashboard/config"
	"github.com/mustafateksen/virtue-local-admin-dashboard/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	handler := NewAuthHandler(db, config.JWTConfig{Secret: "test-secret", Expiry: "1h"})

	router := gin.New()
	router.GET("/api/auth/check-registration", handler.CheckRegistration)
	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/login", handler.Login)

	return router, db
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Admin",
		"username": "Admin",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Username is normalized to lowercase.
	w = doJSON(router, http.MethodPost, "/api/auth/login", gin.H{
		"username": "admin",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRegisterRejectedWhenAdminExists(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Admin",
		"username": "admin",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Second",
		"username": "second",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Admin",
		"username": "admin",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", gin.H{
		"username": "admin",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckRegistration(t *testing.T) {
	router, db := newAuthTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/auth/check-registration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isRegistered":false`)

	user := models.User{Name: "Admin", Username: "admin", Role: "admin", IsActive: true}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(&user).Error)

	w = doJSON(router, http.MethodGet, "/api/auth/check-registration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isRegistered":true`)
}
