package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/backend/internal/infrastructure/persistence"
)

// HealthHandler reports service liveness and readiness
type HealthHandler struct {
	BaseHandler
	db        *persistence.Database
	startedAt time.Time
	version   string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *persistence.Database, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startedAt: time.Now(),
		version:   version,
	}
}

// HealthResponse reports service health
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

// Health returns liveness status without touching dependencies
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		Database: "unchecked",
	})
}

// Ready returns readiness status, checking the database connection
func (h *HealthHandler) Ready(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		Database: "ok",
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	h.Success(c, resp)
}
