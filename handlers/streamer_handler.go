package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/models"
	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StreamerHandler struct {
	db      *gorm.DB
	devices services.DeviceClient
}

func NewStreamerHandler(db *gorm.DB, devices services.DeviceClient) *StreamerHandler {
	return &StreamerHandler{
		db:      db,
		devices: devices,
	}
}

type RenameStreamerRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetStreamers returns every locally persisted streamer row.
func (h *StreamerHandler) GetStreamers(c *gin.Context) {
	var streamers []models.Streamer
	if err := h.db.Find(&streamers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get streamers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"streamers": streamers})
}

// RenameStreamer updates a streamer's display name locally and pushes
// the change to the owning compute unit when it is online. A remote
// push failure never fails the local rename.
func (h *StreamerHandler) RenameStreamer(c *gin.Context) {
	streamerUUID := c.Param("streamer_uuid")

	var req RenameStreamerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	var streamer models.Streamer
	if err := h.db.Where("streamer_uuid = ?", streamerUUID).First(&streamer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Streamer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch streamer"})
		return
	}

	oldName := streamer.StreamerHrName

	if streamer.ComputeUnitID != nil {
		var unit models.ComputeUnit
		if err := h.db.First(&unit, *streamer.ComputeUnitID).Error; err == nil && unit.Status == models.UnitStatusOnline {
			update := services.StreamerInfoUpdate{
				ManuelTimestamp:    time.Now().UTC().Format(time.RFC3339),
				StreamerUUID:       streamer.StreamerUUID,
				StreamerTypeUUID:   streamer.StreamerType,
				StreamerHrName:     req.Name,
				ConfigTemplateName: streamer.ConfigTemplateName,
				IsAlive:            streamer.IsAlive,
			}
			if err := h.devices.UpdateStreamerInfo(unit.IPAddress, update); err != nil {
				log.Printf("[Streamers] Failed to push rename to compute unit %s: %v", unit.IPAddress, err)
			}
		}
	}

	streamer.StreamerHrName = req.Name
	if err := h.db.Save(&streamer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update streamer name"})
		return
	}

	log.Printf("[Streamers] Renamed streamer %s: %s -> %s", streamerUUID, oldName, req.Name)
	c.JSON(http.StatusOK, gin.H{
		"message":       "Streamer name updated successfully",
		"streamer_uuid": streamerUUID,
		"old_name":      oldName,
		"new_name":      req.Name,
	})
}
