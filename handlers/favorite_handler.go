package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FavoriteHandler struct {
	db *gorm.DB
}

func NewFavoriteHandler(db *gorm.DB) *FavoriteHandler {
	return &FavoriteHandler{db: db}
}

type CreateFavoriteRequest struct {
	StreamerUUID       string `json:"streamer_uuid" binding:"required"`
	StreamerHrName     string `json:"streamer_hr_name" binding:"required"`
	StreamerType       string `json:"streamer_type" binding:"required"`
	ConfigTemplateName string `json:"config_template_name"`
	ComputeUnitIP      string `json:"compute_unit_ip" binding:"required"`
	IsAlive            string `json:"is_alive"`
	IPAddress          string `json:"ip_address"`
}

func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	var favorites []models.FavoriteStreamer
	if err := h.db.Order("added_at desc").Find(&favorites).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get favorite streamers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

func (h *FavoriteHandler) CreateFavorite(c *gin.Context) {
	var req CreateFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.FavoriteStreamer
	if err := h.db.Where("streamer_uuid = ?", req.StreamerUUID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Streamer already in favorites"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check favorites"})
		return
	}

	isAlive := req.IsAlive
	if isAlive == "" {
		isAlive = "false"
	}

	favorite := models.FavoriteStreamer{
		StreamerUUID:       req.StreamerUUID,
		StreamerHrName:     req.StreamerHrName,
		StreamerType:       req.StreamerType,
		ConfigTemplateName: req.ConfigTemplateName,
		ComputeUnitIP:      req.ComputeUnitIP,
		IsAlive:            isAlive,
		IPAddress:          req.IPAddress,
		AddedAt:            time.Now().UTC(),
	}

	if err := h.db.Create(&favorite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to favorites"})
		return
	}

	log.Printf("[Favorites] Added streamer to favorites: %s", req.StreamerHrName)
	c.JSON(http.StatusCreated, favorite)
}

func (h *FavoriteHandler) DeleteFavorite(c *gin.Context) {
	streamerUUID := c.Param("streamer_uuid")

	var favorite models.FavoriteStreamer
	if err := h.db.Where("streamer_uuid = ?", streamerUUID).First(&favorite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Streamer not found in favorites"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorite"})
		return
	}

	if err := h.db.Delete(&favorite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove from favorites"})
		return
	}

	log.Printf("[Favorites] Removed streamer from favorites: %s", favorite.StreamerHrName)
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites successfully"})
}
