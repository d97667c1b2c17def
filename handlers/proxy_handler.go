package handlers

import (
	"errors"
	"log"
	"net"
	"net/http"
	"syscall"

	"github.com/mustafateksen/virtue-local-admin-dashboard/models"
	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProxyHandler forwards thin read requests to compute unit AI services
// and returns the remote JSON, degrading to empty bodies when a device
// cannot be reached.
type ProxyHandler struct {
	db      *gorm.DB
	devices *services.HTTPDeviceClient
}

func NewProxyHandler(db *gorm.DB, devices *services.HTTPDeviceClient) *ProxyHandler {
	return &ProxyHandler{
		db:      db,
		devices: devices,
	}
}

// respondDeviceError maps a transport failure against a compute unit
// onto the matching gateway status.
func respondDeviceError(c *gin.Context, err error, message string) {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Compute unit timed out"})
	case errors.Is(err, syscall.ECONNREFUSED):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not connect to compute unit"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": message})
	}
}

type remoteCamera struct {
	services.RemoteStreamer
	ComputeUnitIP string `json:"compute_unit_ip"`
}

// GetCameras fetches the live streamer inventory of one compute unit
// and tags each entry with the unit's address. Transport failures
// yield an empty payload, never an error status.
func (h *ProxyHandler) GetCameras(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	if computeUnitIP == "" {
		c.JSON(http.StatusOK, gin.H{"payload": []remoteCamera{}})
		return
	}

	streamers, err := h.devices.FetchStreamers(computeUnitIP)
	if err != nil {
		log.Printf("[Proxy] Cannot fetch streamers from %s: %v", computeUnitIP, err)
		c.JSON(http.StatusOK, gin.H{"payload": []remoteCamera{}})
		return
	}

	payload := make([]remoteCamera, 0, len(streamers))
	for _, streamer := range streamers {
		payload = append(payload, remoteCamera{
			RemoteStreamer: streamer,
			ComputeUnitIP:  computeUnitIP,
		})
	}

	c.JSON(http.StatusOK, gin.H{"payload": payload})
}

// GetAppAssignments fetches the app-assignment list of one compute
// unit, optionally filtered to a single streamer.
func (h *ProxyHandler) GetAppAssignments(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	if computeUnitIP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Compute Unit IP is required"})
		return
	}

	assignments, err := h.devices.FetchAppAssignments(computeUnitIP)
	if err != nil {
		log.Printf("[Proxy] Cannot fetch app assignments from %s: %v", computeUnitIP, err)
		c.JSON(http.StatusOK, gin.H{
			"message":     "Cannot connect to AI service",
			"assignments": []services.AppAssignment{},
		})
		return
	}

	if streamerUUID := c.Query("streamer_uuid"); streamerUUID != "" {
		filtered := make([]services.AppAssignment, 0, len(assignments))
		for _, assignment := range assignments {
			if assignment.StreamerUUID == streamerUUID {
				filtered = append(filtered, assignment)
			}
		}
		assignments = filtered
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// GetSupportedApps passes the device's supported-apps document through
// unmodified.
func (h *ProxyHandler) GetSupportedApps(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	if computeUnitIP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Compute Unit IP is required"})
		return
	}

	raw, err := h.devices.FetchSupportedApps(computeUnitIP)
	if err != nil {
		log.Printf("[Proxy] Cannot fetch supported apps from %s: %v", computeUnitIP, err)
		c.JSON(http.StatusOK, gin.H{
			"message":        "Cannot connect to AI service",
			"supported_apps": []string{},
		})
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

type LastFrameRequest struct {
	StreamerUUID  string `json:"streamer_uuid" binding:"required"`
	ComputeUnitIP string `json:"compute_unit_ip"`
}

// GetLastFrame retrieves the latest captured frame for a streamer from
// its compute unit. When no address is given the favorites table
// supplies it, so pinned streamers stay viewable without a live
// Streamer row.
func (h *ProxyHandler) GetLastFrame(c *gin.Context) {
	var req LastFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "streamer_uuid is required"})
		return
	}

	computeUnitIP := req.ComputeUnitIP
	if computeUnitIP == "" {
		var favorite models.FavoriteStreamer
		if err := h.db.Where("streamer_uuid = ?", req.StreamerUUID).First(&favorite).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Streamer not found in favorites and no compute_unit_ip provided"})
			return
		}
		computeUnitIP = favorite.ComputeUnitIP
	}

	raw, err := h.devices.FetchLastFrame(computeUnitIP, req.StreamerUUID)
	if err != nil {
		log.Printf("[Proxy] Last frame fetch failed for %s via %s: %v", req.StreamerUUID, computeUnitIP, err)
		respondDeviceError(c, err, "Failed to get last frame from compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}
