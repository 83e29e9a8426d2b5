package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhatro/backend/internal/infrastructure/persistence"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping() error
}

// PoolReporter optionally exposes connection pool statistics. The health
// endpoint includes them when the store implements it.
type PoolReporter interface {
	Stats() (persistence.PoolStats, error)
}

// SystemHandler handles health and system info endpoints
type SystemHandler struct {
	BaseHandler
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Nha Tro Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Pool     *persistence.PoolStats `json:"pool,omitempty"`
}

// Health handles GET /health. Reports 503 when the database is down so
// load balancers take the instance out of rotation.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "up"}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeInternal, "database unreachable"))
			return
		}
		if reporter, ok := h.db.(PoolReporter); ok {
			if stats, err := reporter.Stats(); err == nil {
				resp.Pool = &stats
			}
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}
