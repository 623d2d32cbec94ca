package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/device/schema"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:        "healthy",
		PairingSource: "connected",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if !s.controller.IsConnected() {
		out.Status = "degraded"
		out.PairingSource = "disconnected"
	}
	if devices, err := s.controller.ListDevices(ctx); err == nil {
		out.Devices = len(devices)
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(listOutput(devices))), nil
}

func (s *Server) handleRefreshDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.Refresh(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh devices: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(listOutput(devices))), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}

	out := GetDeviceOutput{Device: DeviceToInfo(d)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleScanDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.controller.Scan(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to scan: %s", err)), nil
	}
	out := ActionOutput{
		Success: true,
		Message: "Discovery scan finished",
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleConnectDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.Connect(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to connect device: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Connecting to %q", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleDisconnectDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.Disconnect(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to disconnect device: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Device %q disconnected", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSetDeviceIcon(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	icon, ok := request.GetArguments()["icon"].(string)
	if !ok {
		return mcp.NewToolResultError(`parameter "icon" must be a string`), nil
	}

	if s.validator != nil {
		if err := s.validator.Validate(schema.IconOverrideSchema, map[string]any{"icon": icon}); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation error: %s", err)), nil
		}
	}

	if err := s.controller.SetIconOverride(ctx, id, icon); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set icon: %s", err)), nil
	}
	return s.deviceResult(ctx, id)
}

func (s *Server) handleSetIconVisibility(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	show, ok := request.GetArguments()["show"].(bool)
	if !ok {
		return mcp.NewToolResultError(`parameter "show" must be a boolean`), nil
	}

	if err := s.controller.SetIconVisibility(ctx, id, show); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set visibility: %s", err)), nil
	}
	return s.deviceResult(ctx, id)
}

func (s *Server) handleSetAudioOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RouteAudio(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to route audio: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Audio routed to %q", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func (s *Server) deviceResult(ctx context.Context, id string) (*mcp.CallToolResult, error) {
	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(GetDeviceOutput{Device: DeviceToInfo(d)})), nil
}

func listOutput(devices []device.Device) ListDevicesOutput {
	infos := make([]DeviceInfo, 0, len(devices))
	for i := range devices {
		infos = append(infos, DeviceToInfo(&devices[i]))
	}
	return ListDevicesOutput{Devices: infos, Count: len(infos)}
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
