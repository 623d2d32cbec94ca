package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bluebar/pkg/api/types"
	"github.com/urmzd/bluebar/pkg/device"
)

// PassClock reports when the last reconciliation pass finished.
type PassClock interface {
	LastPass() time.Time
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller device.Controller
	passes     PassClock
}

// NewHealthHandler creates a new health handler. passes may be nil.
func NewHealthHandler(controller device.Controller, passes PassClock) *HealthHandler {
	return &HealthHandler{controller: controller, passes: passes}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the engine status and the time of the last reconciliation pass
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "No pairing source"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:        "healthy",
		PairingSource: "connected",
		Timestamp:     time.Now(),
	}
	httpStatus := http.StatusOK

	if !h.controller.IsConnected() {
		resp.Status = "degraded"
		resp.PairingSource = "disconnected"
		httpStatus = http.StatusServiceUnavailable
	}
	if devices, err := h.controller.ListDevices(c.Request.Context()); err == nil {
		resp.Devices = len(devices)
	}
	if h.passes != nil {
		if last := h.passes.LastPass(); !last.IsZero() {
			resp.LastPass = &last
		}
	}

	c.JSON(httpStatus, resp)
}
