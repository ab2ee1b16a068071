// Package handlers provides the HTTP handlers of the service.
package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/app-context/internal/ports"
)

// BuildInfo describes the running binary. Version, Commit and BuildTime
// are injected with ldflags.
type BuildInfo struct {
	Version   string      `json:"version"`
	Commit    string      `json:"commit"`
	BuildTime string      `json:"buildTime"`
	GoVersion string      `json:"goVersion"`
	Context   ContextInfo `json:"context"`
}

// ContextInfo describes how request context is assembled.
type ContextInfo struct {
	Enabled   bool     `json:"enabled"`
	Providers []string `json:"providers"`
	Channels  []string `json:"channels"`
}

// NewBuildInfo creates a BuildInfo for the current Go runtime.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the operational endpoints under /-/.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{registry: registry, buildInfo: buildInfo}
}

type livenessResponse struct {
	Status string `json:"status"`
}

// Liveness answers 200 while the process runs. Dependencies are not
// checked; that is what readiness is for.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

type readinessResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness answers 503 while any registered checker fails, for instance
// while the webhook collector's circuit is open.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, readinessResponse{Status: string(result.Status), Checks: result.Checks})
}

// Build reports BuildInfo.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// Register mounts the handlers on rg:
//
//	GET /live     liveness check
//	GET /ready    readiness check
//	GET /build    build and context composition
//	GET /metrics  Prometheus metrics
func (h *HealthHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.Build)
	rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
