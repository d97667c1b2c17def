package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeviceConfig() config.DeviceConfig {
	return config.DeviceConfig{
		DefaultPort:  "8000",
		PingTimeout:  2 * time.Second,
		FetchTimeout: 2 * time.Second,
	}
}

// serverAddress strips the scheme so the httptest URL can be used as a
// compute unit address (host:port).
func serverAddress(t *testing.T, server *httptest.Server) string {
	t.Helper()
	return strings.TrimPrefix(server.URL, "http://")
}

func TestDeviceURLAppendsDefaultPort(t *testing.T) {
	client := NewHTTPDeviceClient(testDeviceConfig())

	assert.Equal(t, "http://10.0.0.5:8000/ping", client.DeviceURL("10.0.0.5", "/ping"))
	assert.Equal(t, "http://10.0.0.5:9000/ping", client.DeviceURL("10.0.0.5:9000", "/ping"))
}

func TestPingReachableOnExactPong(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"msg":"pong"}`))
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	result := client.Ping(serverAddress(t, server))

	assert.True(t, result.Reachable)
	assert.Equal(t, "pong", result.Message)
	assert.Equal(t, PingMethodDirect, result.Method)
}

func TestPingUnreachableOnWrongBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"msg":"hello"}`))
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	result := client.Ping(serverAddress(t, server))

	assert.False(t, result.Reachable)
	assert.Equal(t, "hello", result.Message)
	assert.Equal(t, PingMethodDirect, result.Method)
}

func TestPingUnreachableOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	result := client.Ping(serverAddress(t, server))

	assert.False(t, result.Reachable)
	assert.Equal(t, "Device not found (HTTP 500)", result.Message)
	assert.Equal(t, PingMethodDirect, result.Method)
}

func TestPingConnectionRefused(t *testing.T) {
	// Grab a port that nothing listens on anymore.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	address := serverAddress(t, server)
	server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	result := client.Ping(address)

	assert.False(t, result.Reachable)
	assert.Equal(t, PingMethodRefused, result.Method)
}

func TestPingTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testDeviceConfig()
	cfg.PingTimeout = 50 * time.Millisecond
	client := NewHTTPDeviceClient(cfg)

	result := client.Ping(serverAddress(t, server))

	assert.False(t, result.Reachable)
	assert.Equal(t, PingMethodTimeout, result.Method)
}

func TestFetchStreamers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streamers/public/get_streamers_infos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payload":[
			{"streamer_uuid":"cam-1","streamer_type":"camera","streamer_hr_name":"Entrance","config_template_name":"default","is_alive":"true"},
			{"streamer_uuid":"cam-2","streamer_type":"camera","streamer_hr_name":"Yard","config_template_name":"default","is_alive":"false"}
		]}`))
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	streamers, err := client.FetchStreamers(serverAddress(t, server))

	require.NoError(t, err)
	require.Len(t, streamers, 2)
	assert.Equal(t, "cam-1", streamers[0].StreamerUUID)
	assert.Equal(t, "Entrance", streamers[0].StreamerHrName)
	assert.Equal(t, "true", streamers[0].IsAlive)
	assert.Equal(t, "false", streamers[1].IsAlive)
}

func TestFetchStreamersEmptyPayloadIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payload":[]}`))
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	streamers, err := client.FetchStreamers(serverAddress(t, server))

	require.NoError(t, err)
	assert.Empty(t, streamers)
}

func TestFetchStreamersNon200IsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	_, err := client.FetchStreamers(serverAddress(t, server))

	assert.Error(t, err)
}

func TestFetchStreamersTransportFailureIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	address := serverAddress(t, server)
	server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	_, err := client.FetchStreamers(address)

	assert.Error(t, err)
}

func TestFetchAppAssignments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/public/get_streamer_app_assignments", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"assignments":[
			{"streamer_uuid":"cam-1","app_name":"motion","app_config_template_name":"default","is_active":"true"}
		]}`))
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	assignments, err := client.FetchAppAssignments(serverAddress(t, server))

	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "motion", assignments[0].AppName)
	assert.Equal(t, "true", assignments[0].IsActive)
}

func TestUpdateStreamerInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/streamers/private/update_streamer_info", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewHTTPDeviceClient(testDeviceConfig())
	err := client.UpdateStreamerInfo(serverAddress(t, server), StreamerInfoUpdate{
		StreamerUUID:   "cam-1",
		StreamerHrName: "New name",
	})

	assert.NoError(t, err)
}
