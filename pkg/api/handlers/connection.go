package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bluebar/pkg/api/types"
	"github.com/urmzd/bluebar/pkg/device"
)

// ConnectionHandler handles connect, disconnect, audio and scan actions
type ConnectionHandler struct {
	controller device.Controller
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(controller device.Controller) *ConnectionHandler {
	return &ConnectionHandler{controller: controller}
}

// Connect handles POST /devices/:id/connect
// @Summary      Connect a device
// @Description  Starts a connection request with bounded retries. The outcome arrives on the event stream.
// @Tags         connection
// @Produce      json
// @Param        id   path      string  true  "Device id, address or name"
// @Success      202  {object}  types.ActionResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      501  {object}  types.ErrorResponse  "Device has no address"
// @Router       /devices/{id}/connect [post]
func (h *ConnectionHandler) Connect(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.Connect(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, types.ActionResponse{
		Status:    "connecting",
		Device:    id,
		Timestamp: time.Now(),
	})
}

// Disconnect handles POST /devices/:id/disconnect
// @Summary      Disconnect a device
// @Tags         connection
// @Produce      json
// @Param        id   path      string  true  "Device id, address or name"
// @Success      200  {object}  types.ActionResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id}/disconnect [post]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.Disconnect(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ActionResponse{
		Status:    "disconnected",
		Device:    id,
		Timestamp: time.Now(),
	})
}

// RouteAudio handles POST /devices/:id/audio
// @Summary      Route audio output
// @Description  Best effort switch of the system default output to the device
// @Tags         connection
// @Produce      json
// @Param        id   path      string  true  "Device id, address or name"
// @Success      200  {object}  types.ActionResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      503  {object}  types.ErrorResponse  "Device not connected"
// @Failure      500  {object}  types.ErrorResponse  "Audio switch failed"
// @Router       /devices/{id}/audio [post]
func (h *ConnectionHandler) RouteAudio(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.RouteAudio(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ActionResponse{
		Status:    "audio_routed",
		Device:    id,
		Timestamp: time.Now(),
	})
}

// Scan handles POST /scan
// @Summary      Scan for devices
// @Description  Runs a discovery scan followed by a reconciliation pass
// @Tags         connection
// @Produce      json
// @Success      200  {object}  types.ActionResponse
// @Failure      503  {object}  types.ErrorResponse  "No pairing source"
// @Router       /scan [post]
func (h *ConnectionHandler) Scan(c *gin.Context) {
	if err := h.controller.Scan(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ActionResponse{
		Status:    "scanned",
		Timestamp: time.Now(),
	})
}
