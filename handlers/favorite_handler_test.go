package handlers

import (
	"net/http"
	"testing"

	"github.com/mustafateksen/virtue-local-admin-dashboard/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newFavoriteTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FavoriteStreamer{}))

	handler := NewFavoriteHandler(db)

	router := gin.New()
	router.GET("/api/favorites", handler.GetFavorites)
	router.POST("/api/favorites", handler.CreateFavorite)
	router.DELETE("/api/favorites/:streamer_uuid", handler.DeleteFavorite)

	return router, db
}

func favoritePayload() gin.H {
	return gin.H{
		"streamer_uuid":        "cam-1",
		"streamer_hr_name":     "Entrance",
		"streamer_type":        "camera",
		"config_template_name": "default",
		"compute_unit_ip":      "10.0.0.5",
		"is_alive":             "true",
	}
}

func TestCreateFavorite(t *testing.T) {
	router, db := newFavoriteTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/favorites", favoritePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var favorite models.FavoriteStreamer
	require.NoError(t, db.Where("streamer_uuid = ?", "cam-1").First(&favorite).Error)
	assert.Equal(t, "Entrance", favorite.StreamerHrName)
	assert.Equal(t, "10.0.0.5", favorite.ComputeUnitIP)
	assert.False(t, favorite.AddedAt.IsZero())
}

func TestCreateFavoriteDuplicateConflicts(t *testing.T) {
	router, db := newFavoriteTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/favorites", favoritePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/favorites", favoritePayload())
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.FavoriteStreamer{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateFavoriteMissingFields(t *testing.T) {
	router, _ := newFavoriteTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/favorites", gin.H{"streamer_uuid": "cam-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFavorite(t *testing.T) {
	router, db := newFavoriteTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/favorites", favoritePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/favorites/cam-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.FavoriteStreamer{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteFavoriteNotFound(t *testing.T) {
	router, _ := newFavoriteTestRouter(t)

	w := doJSON(router, http.MethodDelete, "/api/favorites/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
