// Package api serves the optional admin endpoints: health probes and
// Prometheus metrics.
package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/developer-mesh/review-mcp/internal/observability"
	"github.com/developer-mesh/review-mcp/internal/platform"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status  HealthStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Backend    string                     `json:"backend"`
	Version    string                     `json:"version"`
	Tools      int                        `json:"tools"`
	Uptime     float64                    `json:"uptime_seconds"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// LivenessResponse represents a simple liveness check response
type LivenessResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Alive     bool         `json:"alive"`
}

// HealthConfig describes the adapter being probed.
type HealthConfig struct {
	Backend     string
	Version     string
	ToolCount   int
	ScriptsDir  string
	MissingVars []string

	// Interpreters are probed on PATH at every check.
	Interpreters []string
}

// HealthChecker answers health probes for one adapter process
type HealthChecker struct {
	cfg       HealthConfig
	logger    observability.Logger
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(cfg HealthConfig, logger observability.Logger) *HealthChecker {
	return &HealthChecker{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Liveness returns a simple liveness check
func (h *HealthChecker) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Alive:     true,
	})
}

// Health reports the catalog, scripts directory and connection variables.
// Degraded still answers 200.
func (h *HealthChecker) Health(c *gin.Context) {
	response := h.Check()

	status := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
		h.logger.Warn("Health check failed", map[string]interface{}{
			"backend": h.cfg.Backend,
		})
	}

	c.JSON(status, response)
}

// Check runs every component check.
func (h *HealthChecker) Check() *HealthResponse {
	components := map[string]ComponentHealth{
		"tool_registry": h.checkToolRegistry(),
		"scripts":       h.checkScriptsDir(),
		"connection":    h.checkConnection(),
		"interpreters":  h.checkInterpreters(),
	}

	overall := HealthStatusHealthy
	for _, component := range components {
		switch component.Status {
		case HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	return &HealthResponse{
		Status:     overall,
		Timestamp:  time.Now(),
		Backend:    h.cfg.Backend,
		Version:    h.cfg.Version,
		Tools:      h.cfg.ToolCount,
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: components,
	}
}

func (h *HealthChecker) checkToolRegistry() ComponentHealth {
	if h.cfg.ToolCount == 0 {
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: "no tools registered"}
	}
	return ComponentHealth{
		Status:  HealthStatusHealthy,
		Details: map[string]interface{}{"tool_count": h.cfg.ToolCount},
	}
}

func (h *HealthChecker) checkScriptsDir() ComponentHealth {
	details := map[string]interface{}{"path": h.cfg.ScriptsDir}

	info, err := os.Stat(h.cfg.ScriptsDir)
	switch {
	case err != nil:
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: err.Error(), Details: details}
	case !info.IsDir():
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: "not a directory", Details: details}
	}
	return ComponentHealth{Status: HealthStatusHealthy, Details: details}
}

// Missing connection variables do not stop scripts from running; they fail
// with their own message.
func (h *HealthChecker) checkConnection() ComponentHealth {
	if len(h.cfg.MissingVars) == 0 {
		return ComponentHealth{Status: HealthStatusHealthy}
	}
	return ComponentHealth{
		Status:  HealthStatusDegraded,
		Message: fmt.Sprintf("missing environment variables: %s", strings.Join(h.cfg.MissingVars, ", ")),
	}
}

func (h *HealthChecker) checkInterpreters() ComponentHealth {
	info := platform.GetInfo(h.cfg.Interpreters...)
	details := map[string]interface{}{
		"os":           info.OS,
		"architecture": info.Architecture,
		"found":        info.Interpreters,
	}

	missing := info.Missing(h.cfg.Interpreters...)
	if len(missing) == 0 {
		return ComponentHealth{Status: HealthStatusHealthy, Details: details}
	}
	return ComponentHealth{
		Status:  HealthStatusDegraded,
		Message: fmt.Sprintf("interpreters not found on PATH: %s", strings.Join(missing, ", ")),
		Details: details,
	}
}

// RegisterRoutes registers the detailed health routes. Liveness is
// registered separately so it can stay unauthenticated.
func (h *HealthChecker) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
	router.GET("/health/ready", h.Health)
}
