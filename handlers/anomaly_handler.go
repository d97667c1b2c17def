package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path"

	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-gonic/gin"
)

// AnomalyHandler forwards anomaly review requests to a compute unit's
// anomaly app: log metadata, snapshot images and the memory sets the
// detector was trained on. All state lives on the device; the dashboard
// only relays.
type AnomalyHandler struct {
	devices *services.HTTPDeviceClient
}

func NewAnomalyHandler(devices *services.HTTPDeviceClient) *AnomalyHandler {
	return &AnomalyHandler{devices: devices}
}

type AnomalyLogStarRequest struct {
	ComputeUnitIP string `json:"compute_unit_ip" binding:"required"`
	AnomalyUUID   string `json:"anomaly_uuid" binding:"required"`
	IsStarred     *bool  `json:"is_starred" binding:"required"`
}

type AnomalyLogDeleteRequest struct {
	ComputeUnitIP string `json:"compute_unit_ip" binding:"required"`
	AnomalyUUID   string `json:"anomaly_uuid" binding:"required"`
}

type MemorySetThumbnailsRequest struct {
	ComputeUnitIP string   `json:"compute_unit_ip" binding:"required"`
	SampleUUIDs   []string `json:"sample_uuids" binding:"required"`
}

type MemorySetDeleteRequest struct {
	ComputeUnitIP string `json:"compute_unit_ip" binding:"required"`
	SetUUID       string `json:"set_uuid" binding:"required"`
}

// GetAnomalyLogsMetadata lists the anomaly logs recorded on one compute
// unit.
func (h *AnomalyHandler) GetAnomalyLogsMetadata(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	if computeUnitIP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Compute Unit IP is required"})
		return
	}

	raw, err := h.devices.FetchAnomalyLogsMetadata(computeUnitIP)
	if err != nil {
		log.Printf("[Anomaly] Cannot fetch anomaly logs metadata from %s: %v", computeUnitIP, err)
		respondDeviceError(c, err, "Failed to get anomaly logs from compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// GetAnomalyLogImage relays one anomaly snapshot image, preserving the
// device's content type.
func (h *AnomalyHandler) GetAnomalyLogImage(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	filePath := c.Query("file_path")
	if computeUnitIP == "" || filePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compute_unit_ip and file_path are required"})
		return
	}

	data, contentType, err := h.devices.FetchAnomalyLogImage(computeUnitIP, filePath)
	if err != nil {
		log.Printf("[Anomaly] Cannot fetch anomaly image from %s: %v", computeUnitIP, err)
		respondDeviceError(c, err, "Failed to get anomaly image from compute unit")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(filePath)))
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

// SetAnomalyLogStar relays a star/unstar request for one anomaly log.
func (h *AnomalyHandler) SetAnomalyLogStar(c *gin.Context) {
	var req AnomalyLogStarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compute_unit_ip, anomaly_uuid and is_starred are required"})
		return
	}

	raw, err := h.devices.SetAnomalyLogStar(req.ComputeUnitIP, req.AnomalyUUID, *req.IsStarred)
	if err != nil {
		log.Printf("[Anomaly] Cannot set star state on %s: %v", req.ComputeUnitIP, err)
		respondDeviceError(c, err, "Failed to update anomaly log on compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// DeleteAnomalyLog relays deletion of one anomaly log.
func (h *AnomalyHandler) DeleteAnomalyLog(c *gin.Context) {
	var req AnomalyLogDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compute_unit_ip and anomaly_uuid are required"})
		return
	}

	raw, err := h.devices.DeleteAnomalyLog(req.ComputeUnitIP, req.AnomalyUUID)
	if err != nil {
		log.Printf("[Anomaly] Cannot delete anomaly log on %s: %v", req.ComputeUnitIP, err)
		respondDeviceError(c, err, "Failed to delete anomaly log on compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// GetMemorySetRows lists the memory sets stored on one compute unit.
func (h *AnomalyHandler) GetMemorySetRows(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	if computeUnitIP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Compute Unit IP is required"})
		return
	}

	raw, err := h.devices.FetchMemorySetRows(computeUnitIP)
	if err != nil {
		log.Printf("[Anomaly] Cannot fetch memory set rows from %s: %v", computeUnitIP, err)
		respondDeviceError(c, err, "Failed to get memory sets from compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// GetMemorySetSamples returns the sample UUIDs of one memory set,
// extracted from the device's thumbnail records with duplicates removed
// in first-seen order.
func (h *AnomalyHandler) GetMemorySetSamples(c *gin.Context) {
	computeUnitIP := c.Query("compute_unit_ip")
	setUUID := c.Query("set_uuid")
	if computeUnitIP == "" || setUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compute_unit_ip and set_uuid are required"})
		return
	}

	raw, err := h.devices.FetchMemorySetData(computeUnitIP, setUUID)
	if err != nil {
		log.Printf("[Anomaly] Cannot fetch memory set data from %s: %v", computeUnitIP, err)
		respondDeviceError(c, err, "Failed to get memory set data from compute unit")
		return
	}

	var data struct {
		Thumbnails []struct {
			SampleUUID string `json:"sample_uuid"`
		} `json:"thumbnails"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("[Anomaly] Unreadable memory set data from %s: %v", computeUnitIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Compute unit returned an unreadable memory set"})
		return
	}

	seen := make(map[string]bool)
	sampleUUIDs := make([]string, 0, len(data.Thumbnails))
	for _, thumbnail := range data.Thumbnails {
		if thumbnail.SampleUUID == "" || seen[thumbnail.SampleUUID] {
			continue
		}
		seen[thumbnail.SampleUUID] = true
		sampleUUIDs = append(sampleUUIDs, thumbnail.SampleUUID)
	}

	c.JSON(http.StatusOK, gin.H{"sample_uuids": sampleUUIDs})
}

// GetMemorySetThumbnails relays a batch thumbnail fetch for memory set
// samples.
func (h *AnomalyHandler) GetMemorySetThumbnails(c *gin.Context) {
	var req MemorySetThumbnailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compute_unit_ip and sample_uuids are required"})
		return
	}

	raw, err := h.devices.FetchThumbnailImages(req.ComputeUnitIP, req.SampleUUIDs)
	if err != nil {
		log.Printf("[Anomaly] Cannot fetch thumbnails from %s: %v", req.ComputeUnitIP, err)
		respondDeviceError(c, err, "Failed to get thumbnails from compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// DeleteMemorySet relays deletion of one memory set.
func (h *AnomalyHandler) DeleteMemorySet(c *gin.Context) {
	var req MemorySetDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compute_unit_ip and set_uuid are required"})
		return
	}

	raw, err := h.devices.DeleteMemorySet(req.ComputeUnitIP, req.SetUUID)
	if err != nil {
		log.Printf("[Anomaly] Cannot delete memory set on %s: %v", req.ComputeUnitIP, err)
		respondDeviceError(c, err, "Failed to delete memory set on compute unit")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}
