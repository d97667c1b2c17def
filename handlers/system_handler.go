package handlers

import (
	"net/http"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	devices services.DeviceClient
}

func NewSystemHandler(devices services.DeviceClient) *SystemHandler {
	return &SystemHandler{devices: devices}
}

// GetSystemStats reports resource usage of the host running the
// dashboard itself.
func (h *SystemHandler) GetSystemStats(c *gin.Context) {
	stats, err := services.GetSystemStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get system stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *SystemHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ping probes a device address on demand and reports the detailed
// result; without an ip parameter it just confirms the API is up.
func (h *SystemHandler) Ping(c *gin.Context) {
	ip := c.Query("ip")
	if ip == "" {
		c.JSON(http.StatusOK, gin.H{"status": "online", "message": "API is reachable"})
		return
	}

	result := h.devices.Ping(ip)
	status := "unreachable"
	if result.Reachable {
		status = "reachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"ip":     ip,
		"msg":    result.Message,
		"method": result.Method,
	})
}
