package device

import "context"

// PairingSource is the OS pairing API: the list of bonded accessories and
// the primitives to open or close a connection to one of them.
// All methods are keyed by hardware address in any separator convention.
type PairingSource interface {
	// ListPaired returns every paired device, connected or not
	ListPaired(ctx context.Context) ([]PairedDevice, error)

	// Lookup resolves a single paired device; ErrNotFound if unknown
	Lookup(ctx context.Context, address string) (*PairedDevice, error)

	// IsConnected returns the live connection status
	IsConnected(ctx context.Context, address string) (bool, error)

	// Connect asks the OS to open a connection
	Connect(ctx context.Context, address string) error

	// Disconnect asks the OS to close the connection
	Disconnect(ctx context.Context, address string) error

	// Inquiry runs a discovery scan and returns once it settles
	Inquiry(ctx context.Context) error
}

// LinkEventSource delivers OS connect/disconnect notifications.
type LinkEventSource interface {
	LinkEvents(ctx context.Context) (<-chan LinkEvent, error)
}

// Controller is the surface a presentation host drives.
// It abstracts the engine so hosts (HTTP, MCP, menu bar) stay decoupled from it.
type Controller interface {
	// ListDevices returns the current registry snapshot ordered by ID
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single device by ID, address or name
	GetDevice(ctx context.Context, id string) (*Device, error)

	// Connect requests a connection with bounded retries
	Connect(ctx context.Context, id string) error

	// Disconnect closes the connection to a device
	Disconnect(ctx context.Context, id string) error

	// Refresh runs a reconciliation pass and returns the resulting devices
	Refresh(ctx context.Context) ([]Device, error)

	// Scan runs a discovery scan, then a reconciliation pass
	Scan(ctx context.Context) error

	// SetIconOverride persists a custom icon; an empty icon clears it
	SetIconOverride(ctx context.Context, id, icon string) error

	// SetIconVisibility persists whether the device's icon is shown
	SetIconVisibility(ctx context.Context, id string, show bool) error

	// RouteAudio asks the system to use the device as default audio output
	RouteAudio(ctx context.Context, id string) error

	// IsConnected returns true if the pairing source is usable
	IsConnected() bool

	// Close stops background work
	Close()
}

// EventSubscriber defines the interface for subscribing to registry events
type EventSubscriber interface {
	// Subscribe returns a channel that receives registry events
	Subscribe() chan Event

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan Event)

	// SubscribeAlerts returns a channel that receives low-battery alerts
	SubscribeAlerts() chan Alert

	// UnsubscribeAlerts removes an alert subscription
	UnsubscribeAlerts(ch chan Alert)
}
