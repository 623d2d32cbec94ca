package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/bluebar/pkg/api/types"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/device/schema"
)

// OverridesHandler handles per-device presentation settings
type OverridesHandler struct {
	controller device.Controller
	validator  *schema.Validator
}

// NewOverridesHandler creates a new overrides handler
func NewOverridesHandler(controller device.Controller, validator *schema.Validator) *OverridesHandler {
	return &OverridesHandler{controller: controller, validator: validator}
}

// SetIcon handles PUT /devices/:id/icon
// @Summary      Set icon override
// @Description  Stores a custom icon identifier for the device; an empty icon clears it
// @Tags         overrides
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Device id, address or name"
// @Param        request  body      types.IconOverrideRequest  true  "Icon identifier"
// @Success      200      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id}/icon [put]
func (h *OverridesHandler) SetIcon(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var raw map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&raw); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}
	if err := h.validator.Validate(schema.IconOverrideSchema, raw); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}
	icon, _ := raw["icon"].(string)

	if err := h.controller.SetIconOverride(ctx, id, icon); err != nil {
		writeError(c, err)
		return
	}
	h.respondDevice(c, id)
}

// SetVisibility handles PUT /devices/:id/visibility
// @Summary      Show or hide the device icon
// @Tags         overrides
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Device id, address or name"
// @Param        request  body      types.VisibilityRequest  true  "Visibility"
// @Success      200      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id}/visibility [put]
func (h *OverridesHandler) SetVisibility(c *gin.Context) {
	id := c.Param("id")

	var req types.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "show is required",
		})
		return
	}

	if err := h.controller.SetIconVisibility(c.Request.Context(), id, *req.Show); err != nil {
		writeError(c, err)
		return
	}
	h.respondDevice(c, id)
}

func (h *OverridesHandler) respondDevice(c *gin.Context, id string) {
	d, err := h.controller.GetDevice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DeviceResponse{Device: types.FromDevice(*d)})
}
