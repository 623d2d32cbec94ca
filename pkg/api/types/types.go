package types

import (
	"time"

	"github.com/urmzd/bluebar/pkg/device"
)

// --- Request DTOs ---

// IconOverrideRequest is the request body for PUT /devices/:id/icon.
// An empty icon clears the override.
type IconOverrideRequest struct {
	Icon string `json:"icon"`
}

// VisibilityRequest is the request body for PUT /devices/:id/visibility
type VisibilityRequest struct {
	Show *bool `json:"show" binding:"required"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status        string     `json:"status"`
	PairingSource string     `json:"pairing_source"`
	Devices       int        `json:"devices"`
	LastPass      *time.Time `json:"last_pass,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// DeviceResponseItem is one device as served by the API
type DeviceResponseItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	Connected      bool   `json:"connected"`
	BatteryGeneral *int   `json:"battery_general,omitempty"`
	BatteryLeft    *int   `json:"battery_left,omitempty"`
	BatteryRight   *int   `json:"battery_right,omitempty"`
	BatteryCase    *int   `json:"battery_case,omitempty"`
	AppleStyle     bool   `json:"apple_style"`
	IconOverride   string `json:"icon_override,omitempty"`
	ShowIcon       bool   `json:"show_icon"`
}

// FromDevice converts a registry device to its API form
func FromDevice(d device.Device) DeviceResponseItem {
	return DeviceResponseItem{
		ID:             d.ID,
		Name:           d.Name,
		Address:        d.Address,
		Connected:      d.Connected,
		BatteryGeneral: d.BatteryGeneral,
		BatteryLeft:    d.BatteryLeft,
		BatteryRight:   d.BatteryRight,
		BatteryCase:    d.BatteryCase,
		AppleStyle:     d.IsAppleStyle(),
		IconOverride:   d.IconOverride,
		ShowIcon:       d.ShowIcon,
	}
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []DeviceResponseItem `json:"devices"`
	Count   int                  `json:"count"`
}

// DeviceResponse is returned from GET /devices/:id
type DeviceResponse struct {
	Device DeviceResponseItem `json:"device"`
}

// ActionResponse is returned from device actions
type ActionResponse struct {
	Status    string    `json:"status"`
	Device    string    `json:"device,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
