package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bluebar/pkg/api/types"
	"github.com/urmzd/bluebar/pkg/device"
)

// DevicesHandler serves the device snapshot
type DevicesHandler struct {
	controller device.Controller
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(controller device.Controller) *DevicesHandler {
	return &DevicesHandler{controller: controller}
}

// ListDevices handles GET /devices
// @Summary      List all devices
// @Description  Returns every paired device from the latest reconciliation pass, ordered by id
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	devices, err := h.controller.ListDevices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	result := make([]types.DeviceResponseItem, 0, len(devices))
	for _, d := range devices {
		result = append(result, types.FromDevice(d))
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: result,
		Count:   len(result),
	})
}

// GetDevice handles GET /devices/:id
// @Summary      Get device details
// @Description  Returns one device by id, hardware address in any format, or name
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id, address or name"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	d, err := h.controller.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DeviceResponse{Device: types.FromDevice(*d)})
}

// Refresh handles POST /devices/refresh
// @Summary      Refresh devices
// @Description  Runs a reconciliation pass and returns the resulting devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/refresh [post]
func (h *DevicesHandler) Refresh(c *gin.Context) {
	devices, err := h.controller.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	result := make([]types.DeviceResponseItem, 0, len(devices))
	for _, d := range devices {
		result = append(result, types.FromDevice(d))
	}
	c.JSON(http.StatusOK, types.ListDevicesResponse{Devices: result, Count: len(result)})
}
