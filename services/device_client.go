package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/mustafateksen/virtue-local-admin-dashboard/config"
)

// Ping method tags, reported for diagnostics.
const (
	PingMethodDirect  = "direct_ai_ping"
	PingMethodRefused = "connection_refused"
	PingMethodTimeout = "connection_timeout"
	PingMethodFailed  = "connection_failed"
)

// pongMessage is the exact liveness acknowledgment a compute unit must
// return. Anything else, HTTP 200 or not, means unreachable.
const pongMessage = "pong"

// PingResult is the outcome of a liveness probe. Transport failures are
// folded into the result, never returned as errors.
type PingResult struct {
	Reachable bool   `json:"reachable"`
	Message   string `json:"message"`
	Method    string `json:"method"`
}

// RemoteStreamer is one entry of a compute unit's live inventory.
type RemoteStreamer struct {
	StreamerUUID       string `json:"streamer_uuid"`
	StreamerType       string `json:"streamer_type"`
	StreamerHrName     string `json:"streamer_hr_name"`
	ConfigTemplateName string `json:"config_template_name"`
	IsAlive            string `json:"is_alive"`
}

// AppAssignment is one app-to-streamer assignment record as reported
// by a compute unit. IsActive is a string-typed wire boolean.
type AppAssignment struct {
	StreamerUUID          string `json:"streamer_uuid"`
	AppName               string `json:"app_name"`
	AppConfigTemplateName string `json:"app_config_template_name"`
	IsActive              string `json:"is_active"`
}

// StreamerInfoUpdate is the payload for pushing a streamer rename to
// its owning compute unit.
type StreamerInfoUpdate struct {
	ManuelTimestamp    string `json:"manuel_timestamp"`
	StreamerUUID       string `json:"streamer_uuid"`
	StreamerTypeUUID   string `json:"streamer_type_uuid"`
	StreamerHrName     string `json:"streamer_hr_name"`
	ConfigTemplateName string `json:"config_template_name"`
	IsAlive            string `json:"is_alive"`
}

// DeviceClient is the transport used to talk to a compute unit's AI
// service. The sync service depends on this interface so tests can
// substitute a fake device.
type DeviceClient interface {
	Ping(address string) PingResult
	FetchStreamers(address string) ([]RemoteStreamer, error)
	FetchAppAssignments(address string) ([]AppAssignment, error)
	UpdateStreamerInfo(address string, update StreamerInfoUpdate) error
}

// HTTPDeviceClient talks to compute unit AI services over plain HTTP.
type HTTPDeviceClient struct {
	config      config.DeviceConfig
	pingClient  *http.Client
	fetchClient *http.Client
}

func NewHTTPDeviceClient(cfg config.DeviceConfig) *HTTPDeviceClient {
	return &HTTPDeviceClient{
		config:      cfg,
		pingClient:  &http.Client{Timeout: cfg.PingTimeout},
		fetchClient: &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// DeviceURL builds the base URL for a compute unit address. The default
// AI service port is appended only when the address carries no port of
// its own.
func (c *HTTPDeviceClient) DeviceURL(address, path string) string {
	if strings.Contains(address, ":") {
		return fmt.Sprintf("http://%s%s", address, path)
	}
	return fmt.Sprintf("http://%s:%s%s", address, c.config.DefaultPort, path)
}

// Ping checks whether a compute unit's AI service answers the liveness
// endpoint with the exact acknowledgment token.
func (c *HTTPDeviceClient) Ping(address string) PingResult {
	pingURL := c.DeviceURL(address, "/ping")

	resp, err := c.pingClient.Get(pingURL)
	if err != nil {
		return classifyPingError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PingResult{
			Reachable: false,
			Message:   fmt.Sprintf("Device not found (HTTP %d)", resp.StatusCode),
			Method:    PingMethodDirect,
		}
	}

	var body struct {
		Msg    string `json:"msg"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return PingResult{
			Reachable: false,
			Message:   "Device returned an unreadable response",
			Method:    PingMethodDirect,
		}
	}

	message := body.Msg
	if message == "" {
		message = body.Status
	}
	if message == "" {
		message = "Unknown"
	}

	return PingResult{
		Reachable: body.Msg == pongMessage,
		Message:   message,
		Method:    PingMethodDirect,
	}
}

func classifyPingError(err error) PingResult {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return PingResult{
			Reachable: false,
			Message:   "Device not found - connection timeout",
			Method:    PingMethodTimeout,
		}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return PingResult{
			Reachable: false,
			Message:   "Device not found - connection refused",
			Method:    PingMethodRefused,
		}
	}
	return PingResult{
		Reachable: false,
		Message:   "Device not found - unable to connect",
		Method:    PingMethodFailed,
	}
}

// FetchStreamers retrieves the live streamer inventory of a compute
// unit. The error return distinguishes a transport failure from a
// legitimately empty inventory; callers deciding online/offline state
// must check it instead of treating an empty slice as unreachable.
func (c *HTTPDeviceClient) FetchStreamers(address string) ([]RemoteStreamer, error) {
	url := c.DeviceURL(address, "/streamers/public/get_streamers_infos")

	resp, err := c.fetchClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch streamers from %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	var body struct {
		Payload []RemoteStreamer `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode streamers response from %s: %w", address, err)
	}

	return body.Payload, nil
}

// FetchAppAssignments retrieves the app-assignment list of a compute
// unit. Pure read; the caller decides how a failure degrades.
func (c *HTTPDeviceClient) FetchAppAssignments(address string) ([]AppAssignment, error) {
	url := c.DeviceURL(address, "/apps/public/get_streamer_app_assignments")

	resp, err := c.fetchClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch app assignments from %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	var body struct {
		Assignments []AppAssignment `json:"assignments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode app assignments response from %s: %w", address, err)
	}

	return body.Assignments, nil
}

// UpdateStreamerInfo pushes a streamer metadata change to its owning
// compute unit.
func (c *HTTPDeviceClient) UpdateStreamerInfo(address string, update StreamerInfoUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal streamer update: %w", err)
	}

	url := c.DeviceURL(address, "/streamers/private/update_streamer_info")
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update streamer info at %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("AI service error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// FetchSupportedApps returns the raw supported-apps document of a
// compute unit, passed through unmodified.
func (c *HTTPDeviceClient) FetchSupportedApps(address string) (json.RawMessage, error) {
	url := c.DeviceURL(address, "/apps/device_dependent_info/supported_apps")

	resp, err := c.fetchClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch supported apps from %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read supported apps response from %s: %w", address, err)
	}
	return json.RawMessage(raw), nil
}

// proxyGet fetches a JSON document from a compute unit endpoint and
// passes it through unmodified.
func (c *HTTPDeviceClient) proxyGet(address, path string, query url.Values) (json.RawMessage, error) {
	endpoint := c.DeviceURL(address, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := c.fetchClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to reach AI service at %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", address, err)
	}
	return json.RawMessage(raw), nil
}

// proxySend sends a JSON body to a compute unit endpoint and passes the
// JSON response through unmodified.
func (c *HTTPDeviceClient) proxySend(method, address, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(method, c.DeviceURL(address, path), bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach AI service at %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", address, err)
	}
	return json.RawMessage(raw), nil
}

// FetchAnomalyLogsMetadata returns the anomaly log metadata recorded by
// a compute unit's anomaly app.
func (c *HTTPDeviceClient) FetchAnomalyLogsMetadata(address string) (json.RawMessage, error) {
	return c.proxyGet(address, "/anomaly_app_v1/public/get_anomaly_logs_metadata", nil)
}

// FetchAnomalyLogImage retrieves one anomaly snapshot by its on-device
// file path, returning the raw image bytes and their content type.
func (c *HTTPDeviceClient) FetchAnomalyLogImage(address, filePath string) ([]byte, string, error) {
	endpoint := c.DeviceURL(address, "/anomaly_app_v1/public/get_anomaly_log_image_by_file_path")
	endpoint += "?" + url.Values{"file_path": {filePath}}.Encode()

	resp, err := c.fetchClient.Get(endpoint)
	if err != nil {
		return nil, "", fmt.Errorf("failed to reach AI service at %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image from %s: %w", address, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

// SetAnomalyLogStar flips the starred flag of one anomaly log on its
// compute unit.
func (c *HTTPDeviceClient) SetAnomalyLogStar(address, anomalyUUID string, isStarred bool) (json.RawMessage, error) {
	return c.proxySend(http.MethodPost, address, "/anomaly_app_v1/public/set_star_state_for_anomaly_log", map[string]interface{}{
		"anomaly_uuid": anomalyUUID,
		"is_starred":   isStarred,
	})
}

// DeleteAnomalyLog removes one anomaly log from its compute unit.
func (c *HTTPDeviceClient) DeleteAnomalyLog(address, anomalyUUID string) (json.RawMessage, error) {
	return c.proxySend(http.MethodDelete, address, "/anomaly_app_v1/public/delete_anomaly_log_by_uuid", map[string]string{
		"anomaly_uuid": anomalyUUID,
	})
}

// FetchMemorySetRows returns the memory set listing of a compute unit.
func (c *HTTPDeviceClient) FetchMemorySetRows(address string) (json.RawMessage, error) {
	return c.proxyGet(address, "/anomaly_app_v1/public/get_memory_set_rows", nil)
}

// FetchMemorySetData returns the thumbnail records of one memory set.
// The device expects the set UUID as a JSON body even for a read.
func (c *HTTPDeviceClient) FetchMemorySetData(address, setUUID string) (json.RawMessage, error) {
	return c.proxySend(http.MethodPost, address, "/anomaly_app_v1/public/get_memory_set_data", map[string]string{
		"set_uuid": setUUID,
	})
}

// FetchThumbnailImages retrieves thumbnail images for a batch of memory
// set samples.
func (c *HTTPDeviceClient) FetchThumbnailImages(address string, sampleUUIDs []string) (json.RawMessage, error) {
	return c.proxySend(http.MethodPost, address, "/anomaly_app_v1/public/fetch_thumbnail_images", map[string]interface{}{
		"sample_uuids": sampleUUIDs,
	})
}

// DeleteMemorySet removes one memory set from its compute unit.
func (c *HTTPDeviceClient) DeleteMemorySet(address, setUUID string) (json.RawMessage, error) {
	return c.proxySend(http.MethodDelete, address, "/anomaly_app_v1/public/delete_memory_set", map[string]string{
		"set_uuid": setUUID,
	})
}

// FetchLastFrame asks a compute unit for the latest frame captured by
// one of its streamers and passes the JSON document through unmodified.
func (c *HTTPDeviceClient) FetchLastFrame(address, streamerUUID string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{"streamer_uuid": streamerUUID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal last frame request: %w", err)
	}

	url := c.DeviceURL(address, "/streamers/public/get_streamer_last_frame")
	resp, err := c.fetchClient.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last frame from %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service at %s returned status %d", address, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read last frame response from %s: %w", address, err)
	}
	return json.RawMessage(raw), nil
}
