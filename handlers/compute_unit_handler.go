package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/models"
	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ComputeUnitHandler struct {
	db          *gorm.DB
	devices     services.DeviceClient
	syncService *services.SyncService
}

func NewComputeUnitHandler(db *gorm.DB, devices services.DeviceClient, syncService *services.SyncService) *ComputeUnitHandler {
	return &ComputeUnitHandler{
		db:          db,
		devices:     devices,
		syncService: syncService,
	}
}

type CreateComputeUnitRequest struct {
	Name      string `json:"name"`
	IPAddress string `json:"ip_address" binding:"required"`
}

type UpdateComputeUnitRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

// GetComputeUnits lists every compute unit. Every unit whose last known
// status is online is reconciled against its live inventory first, so
// the response is a best-effort fresh snapshot; a unit found
// unreachable is shown offline with all of its streamers inactive.
func (h *ComputeUnitHandler) GetComputeUnits(c *gin.Context) {
	var units []models.ComputeUnit
	if err := h.db.Find(&units).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch compute units"})
		return
	}

	h.syncService.ReconcileOnline(units)

	result := make([]gin.H, 0, len(units))
	for i := range units {
		result = append(result, h.serializeUnit(&units[i]))
	}

	c.JSON(http.StatusOK, gin.H{"compute_units": result})
}

// GetComputeUnit returns one compute unit with its current streamers,
// without forcing a reconciliation pass.
func (h *ComputeUnitHandler) GetComputeUnit(c *gin.Context) {
	id := c.Param("id")

	var unit models.ComputeUnit
	if err := h.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Compute unit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch compute unit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"compute_unit": h.serializeUnit(&unit)})
}

// CreateComputeUnit registers a new unit. The address must not already
// be registered and the device must answer the liveness probe with the
// exact acknowledgment; a freshly added unit is reconciled best-effort
// so its streamers appear immediately.
func (h *ComputeUnitHandler) CreateComputeUnit(c *gin.Context) {
	var req CreateComputeUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IP address is required"})
		return
	}

	ipAddress := strings.TrimSpace(req.IPAddress)
	if ipAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IP address is required"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("Compute Unit %s", ipAddress)
	}

	var existing models.ComputeUnit
	if err := h.db.Where("ip_address = ?", ipAddress).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Compute unit with this IP already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing compute units"})
		return
	}

	ping := h.devices.Ping(ipAddress)
	if !ping.Reachable {
		log.Printf("[ComputeUnits] Ping failed for %s: %s", ipAddress, ping.Message)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Compute unit is not reachable: %s", ping.Message)})
		return
	}

	now := time.Now().UTC()
	unit := models.ComputeUnit{
		Name:      name,
		IPAddress: ipAddress,
		Status:    models.UnitStatusOnline,
		LastSeen:  &now,
	}

	if err := h.db.Create(&unit).Error; err != nil {
		// A concurrent add for the same address can slip past the lookup
		// above and land on the unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Compute unit with this IP already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add compute unit"})
		return
	}

	// Best effort: a failed first sync must not fail the add.
	if err := h.syncService.Reconcile(&unit); err != nil {
		log.Printf("[ComputeUnits] Initial sync failed for %s: %v", ipAddress, err)
	}

	log.Printf("[ComputeUnits] Added new compute unit: %s (%s)", name, ipAddress)
	c.JSON(http.StatusCreated, gin.H{"compute_unit": h.serializeUnit(&unit)})
}

// UpdateComputeUnit renames a unit or sets its status directly,
// refreshing the updated timestamp (and last seen when flipping
// online).
func (h *ComputeUnitHandler) UpdateComputeUnit(c *gin.Context) {
	id := c.Param("id")

	var unit models.ComputeUnit
	if err := h.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Compute unit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch compute unit"})
		return
	}

	var req UpdateComputeUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		unit.Name = *req.Name
	}
	if req.Status != nil {
		unit.Status = *req.Status
		if *req.Status == models.UnitStatusOnline {
			now := time.Now().UTC()
			unit.LastSeen = &now
		}
	}

	if err := h.db.Save(&unit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update compute unit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"compute_unit": h.serializeUnit(&unit)})
}

// DeleteComputeUnit removes a unit and, in the same transaction, every
// streamer it owns. Favorites are independent and are left untouched.
func (h *ComputeUnitHandler) DeleteComputeUnit(c *gin.Context) {
	id := c.Param("id")

	var unit models.ComputeUnit
	if err := h.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Compute unit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch compute unit"})
		return
	}

	var deletedStreamers int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("compute_unit_id = ?", unit.ID).Delete(&models.Streamer{})
		if result.Error != nil {
			return result.Error
		}
		deletedStreamers = result.RowsAffected

		return tx.Delete(&unit).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete compute unit"})
		return
	}

	h.syncService.ForgetUnit(unit.ID)

	log.Printf("[ComputeUnits] Deleted compute unit %s with %d streamers", unit.IPAddress, deletedStreamers)
	c.JSON(http.StatusOK, gin.H{
		"message":           "Compute unit deleted successfully",
		"deleted_streamers": deletedStreamers,
	})
}

// SyncComputeUnit forces one reconciliation pass for a unit and
// returns the refreshed streamer set.
func (h *ComputeUnitHandler) SyncComputeUnit(c *gin.Context) {
	id := c.Param("id")

	var unit models.ComputeUnit
	if err := h.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Compute unit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch compute unit"})
		return
	}

	if err := h.syncService.Reconcile(&unit); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync compute unit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"compute_unit": h.serializeUnit(&unit)})
}

// serializeUnit renders a unit with its owned streamers as one
// consistent snapshot: an offline unit never shows active streamers,
// even when a failed pass left stale rows behind.
func (h *ComputeUnitHandler) serializeUnit(unit *models.ComputeUnit) gin.H {
	var streamers []models.Streamer
	if err := h.db.Where("compute_unit_id = ?", unit.ID).Find(&streamers).Error; err != nil {
		log.Printf("[ComputeUnits] Failed to load streamers for %s: %v", unit.IPAddress, err)
		streamers = nil
	}

	if unit.Status == models.UnitStatusOffline {
		for i := range streamers {
			streamers[i].Status = models.StreamerStatusInactive
			streamers[i].IsAlive = "false"
		}
	}

	return gin.H{
		"id":         unit.ID,
		"name":       unit.Name,
		"ip_address": unit.IPAddress,
		"status":     unit.Status,
		"last_seen":  unit.LastSeen,
		"created_at": unit.CreatedAt,
		"updated_at": unit.UpdatedAt,
		"streamers":  streamers,
	}
}
