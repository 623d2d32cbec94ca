package mcp

import "github.com/mark3labs/mcp-go/mcp"

const idDescription = "Device id, hardware address in any format, or name"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check whether a Bluetooth pairing source is attached and how many devices are known"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List paired Bluetooth accessories with connection status and battery levels"),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get one paired accessory"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description(idDescription),
			),
		),
		s.handleGetDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh_devices",
			mcp.WithDescription("Run a reconciliation pass now and return the resulting devices"),
		),
		s.handleRefreshDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("scan_devices",
			mcp.WithDescription("Run a Bluetooth discovery scan followed by a reconciliation pass"),
		),
		s.handleScanDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("connect_device",
			mcp.WithDescription("Connect an accessory. Retries up to three times; the outcome shows in list_devices."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description(idDescription),
			),
		),
		s.handleConnectDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("disconnect_device",
			mcp.WithDescription("Disconnect an accessory"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description(idDescription),
			),
		),
		s.handleDisconnectDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_device_icon",
			mcp.WithDescription("Set a custom icon identifier for an accessory. An empty icon clears the override."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description(idDescription),
			),
			mcp.WithString("icon",
				mcp.Required(),
				mcp.Description("Icon identifier (letters, digits, dot, dash, underscore)"),
			),
		),
		s.handleSetDeviceIcon,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_icon_visibility",
			mcp.WithDescription("Show or hide an accessory's menu-bar icon"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description(idDescription),
			),
			mcp.WithBoolean("show",
				mcp.Required(),
				mcp.Description("true to show the icon"),
			),
		),
		s.handleSetIconVisibility,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_audio_output",
			mcp.WithDescription("Make a connected accessory the system default audio output"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description(idDescription),
			),
		),
		s.handleSetAudioOutput,
	)
}
