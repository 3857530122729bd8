package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface
type PingerFunc func(ctx context.Context) error

// Ping calls the wrapped function
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler serves health and readiness probes
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	db        Pinger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		db:        db,
	}
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health reports process liveness; it never touches dependencies
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// ReadyResponse reports readiness including dependency checks
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Ready reports readiness. A failing database ping yields 503 so load
// balancers pull the instance.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, "Database unreachable", getRequestID(c)))
		return
	}
	h.Success(c, ReadyResponse{Status: "ready", Database: "ok"})
}
