package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/app-context/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(_ context.Context) error { return s.err }

func newHealthRouter(t *testing.T, info BuildInfo, checkers ...ports.HealthChecker) *gin.Engine {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, c := range checkers {
		require.NoError(t, registry.Register(c))
	}

	router := gin.New()
	NewHealthHandler(registry, info).Register(router.Group("/-"))

	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	info := NewBuildInfo("1.0.0", "abc123", "2025-01-01T00:00:00Z")

	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestHealthHandler_Liveness(t *testing.T) {
	w := get(newHealthRouter(t, BuildInfo{}), "/-/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []ports.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no checkers",
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name:       "all healthy",
			checkers:   []ports.HealthChecker{stubChecker{name: "webhook-collector"}},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name: "one unhealthy",
			checkers: []ports.HealthChecker{
				stubChecker{name: "webhook-collector", err: errors.New("circuit open")},
				stubChecker{name: "other"},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newHealthRouter(t, BuildInfo{}, tt.checkers...), "/-/ready")

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp readinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestHealthHandler_ReadinessReportsMessage(t *testing.T) {
	w := get(newHealthRouter(t, BuildInfo{}, stubChecker{name: "webhook-collector", err: errors.New("circuit open")}), "/-/ready")

	var resp readinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Checks, "webhook-collector")
	assert.Equal(t, "circuit open", resp.Checks["webhook-collector"].Message)
}

func TestHealthHandler_Build(t *testing.T) {
	info := NewBuildInfo("1.2.3", "deadbeef", "now")
	info.Context = ContextInfo{
		Enabled:   true,
		Providers: []string{"timestamp", "app"},
		Channels:  []string{"log"},
	}

	w := get(newHealthRouter(t, info), "/-/build")
	require.Equal(t, http.StatusOK, w.Code)

	var got BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, info, got)
}

func TestHealthHandler_Metrics(t *testing.T) {
	w := get(newHealthRouter(t, BuildInfo{}), "/-/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
