package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/config"
	"github.com/mustafateksen/virtue-local-admin-dashboard/models"
	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newProxyTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FavoriteStreamer{}))

	client := services.NewHTTPDeviceClient(config.DeviceConfig{
		DefaultPort:  "8000",
		PingTimeout:  time.Second,
		FetchTimeout: time.Second,
	})
	handler := NewProxyHandler(db, client)

	router := gin.New()
	router.GET("/api/get_cameras", handler.GetCameras)
	router.GET("/api/apps/assignments", handler.GetAppAssignments)
	router.POST("/api/streamers/last_frame", handler.GetLastFrame)

	return router, db
}

func fakeDeviceAddress(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestGetCamerasTagsEntriesWithUnitAddress(t *testing.T) {
	router, _ := newProxyTestRouter(t)
	address := fakeDeviceAddress(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payload":[{"streamer_uuid":"cam-1","streamer_type":"camera","streamer_hr_name":"Entrance","is_alive":"true"}]}`))
	})

	w := doJSON(router, http.MethodGet, "/api/get_cameras?compute_unit_ip="+address, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"streamer_uuid":"cam-1"`)
	assert.Contains(t, w.Body.String(), `"compute_unit_ip":"`+address+`"`)
}

func TestGetCamerasUnreachableDeviceYieldsEmptyPayload(t *testing.T) {
	router, _ := newProxyTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/get_cameras?compute_unit_ip=127.0.0.1:1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"payload":[]}`, w.Body.String())
}

func TestGetAppAssignmentsFiltersByStreamer(t *testing.T) {
	router, _ := newProxyTestRouter(t)
	address := fakeDeviceAddress(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"assignments":[
			{"streamer_uuid":"cam-1","app_name":"motion","app_config_template_name":"default","is_active":"true"},
			{"streamer_uuid":"cam-2","app_name":"face","app_config_template_name":"v2","is_active":"true"}
		]}`))
	})

	w := doJSON(router, http.MethodGet, "/api/apps/assignments?compute_unit_ip="+address+"&streamer_uuid=cam-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cam-1")
	assert.NotContains(t, w.Body.String(), "cam-2")
}

func TestGetLastFrameFallsBackToFavorites(t *testing.T) {
	router, db := newProxyTestRouter(t)
	address := fakeDeviceAddress(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streamers/public/get_streamer_last_frame", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"frame":"base64data"}`))
	})

	favorite := models.FavoriteStreamer{
		StreamerUUID:   "cam-1",
		StreamerHrName: "Entrance",
		StreamerType:   "camera",
		ComputeUnitIP:  address,
		AddedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(&favorite).Error)

	w := doJSON(router, http.MethodPost, "/api/streamers/last_frame", gin.H{"streamer_uuid": "cam-1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "base64data")
}

func TestGetLastFrameUnknownStreamerWithoutAddress(t *testing.T) {
	router, _ := newProxyTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/streamers/last_frame", gin.H{"streamer_uuid": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
