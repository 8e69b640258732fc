package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"issuereport/api"
	"issuereport/internal/config"
	"issuereport/internal/middleware"
	"issuereport/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, config.DefaultServiceName, response["service"])
}

func TestRouter_Version(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/v1/version")

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, version.Version, response["version"])
	assert.Equal(t, version.Commit, response["commit"])
	assert.Equal(t, version.BuildTime, response["buildTime"])
}

func TestRouter_ServesSwaggerAndAssets(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/swagger.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.Swagger, w.Body.Bytes())

	w = get(router, "/assets/form.js")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "applyIssueType")

	w = get(router, "/assets/redirect.js")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pagehide")
}

func TestRouter_SecurityAndRequestIDHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, config.DefaultCSP, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/submit-issue", nil)
	req.Header.Set("Origin", "https://app.eldrive.eu")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_DebugRouteListing(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Debug = true
	router, err := NewRouter(cfg, &MockIssueService{}, createTestLogger())
	require.NoError(t, err)

	w := get(router, "/debug/routes")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Service string      `json:"service"`
		Routes  []RouteInfo `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, config.DefaultServiceName, response.Service)

	found := make(map[string]bool)
	for _, r := range response.Routes {
		found[r.Method+" "+r.Path] = true
	}
	assert.True(t, found["POST /api/submit-issue"])
	assert.True(t, found["GET /success"])
	assert.False(t, found["GET /debug/routes"])
}

func TestRouter_NoRouteListingOutsideDebug(t *testing.T) {
	router, _ := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, get(router, "/debug/routes").Code)
}
