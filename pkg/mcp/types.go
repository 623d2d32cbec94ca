package mcp

import (
	"github.com/urmzd/bluebar/pkg/device"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status        string `json:"status" jsonschema:"description=Overall health status (healthy or degraded)"`
	PairingSource string `json:"pairing_source" jsonschema:"description=Whether a Bluetooth pairing source is attached"`
	Devices       int    `json:"devices" jsonschema:"description=Number of paired devices in the current snapshot"`
	Timestamp     string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices and refresh_devices tools
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices" jsonschema:"description=Paired devices ordered by id"`
	Count   int          `json:"count" jsonschema:"description=Total number of devices"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID             string `json:"id" jsonschema:"description=Normalized hardware address, or name when no address is known"`
	Name           string `json:"name" jsonschema:"description=Display name"`
	Address        string `json:"address,omitempty" jsonschema:"description=Normalized hardware address"`
	Connected      bool   `json:"connected" jsonschema:"description=Live connection status"`
	BatteryGeneral *int   `json:"battery_general,omitempty" jsonschema:"description=Battery percentage of single-cell accessories"`
	BatteryLeft    *int   `json:"battery_left,omitempty" jsonschema:"description=Left earbud battery percentage"`
	BatteryRight   *int   `json:"battery_right,omitempty" jsonschema:"description=Right earbud battery percentage"`
	BatteryCase    *int   `json:"battery_case,omitempty" jsonschema:"description=Charging case battery percentage"`
	IconOverride   string `json:"icon_override,omitempty" jsonschema:"description=User-chosen icon identifier"`
	ShowIcon       bool   `json:"show_icon" jsonschema:"description=Whether the device has its own menu-bar icon"`
}

// --- Get Device Tool ---

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device DeviceInfo `json:"device" jsonschema:"description=Device information"`
}

// --- Connection Tools ---

// ActionOutput is the output for connect_device, disconnect_device,
// scan_devices and set_audio_output
type ActionOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the action was accepted"`
	Message string `json:"message" jsonschema:"description=Status message"`
}

// --- Helper conversions ---

// DeviceToInfo converts a device.Device to DeviceInfo
func DeviceToInfo(d *device.Device) DeviceInfo {
	return DeviceInfo{
		ID:             d.ID,
		Name:           d.Name,
		Address:        d.Address,
		Connected:      d.Connected,
		BatteryGeneral: d.BatteryGeneral,
		BatteryLeft:    d.BatteryLeft,
		BatteryRight:   d.BatteryRight,
		BatteryCase:    d.BatteryCase,
		IconOverride:   d.IconOverride,
		ShowIcon:       d.ShowIcon,
	}
}
