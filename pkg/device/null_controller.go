package device

import "context"

// NullPairingSource is a pairing source with no devices, used when no
// Bluetooth stack is reachable. It lets the engine run in limited mode.
type NullPairingSource struct{}

// NewNullPairingSource creates a new NullPairingSource.
func NewNullPairingSource() *NullPairingSource {
	return &NullPairingSource{}
}

func (s *NullPairingSource) ListPaired(ctx context.Context) ([]PairedDevice, error) {
	return []PairedDevice{}, nil
}

func (s *NullPairingSource) Lookup(ctx context.Context, address string) (*PairedDevice, error) {
	return nil, ErrNotFound
}

func (s *NullPairingSource) IsConnected(ctx context.Context, address string) (bool, error) {
	return false, nil
}

func (s *NullPairingSource) Connect(ctx context.Context, address string) error {
	return ErrNotConnected
}

func (s *NullPairingSource) Disconnect(ctx context.Context, address string) error {
	return ErrNotConnected
}

func (s *NullPairingSource) Inquiry(ctx context.Context) error {
	return ErrNotConnected
}

// NullController is a no-op controller used when the engine could not start.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) Connect(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullController) Disconnect(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullController) Refresh(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) Scan(ctx context.Context) error {
	return ErrNotConnected
}

func (c *NullController) SetIconOverride(ctx context.Context, id, icon string) error {
	return ErrNotConnected
}

func (c *NullController) SetIconVisibility(ctx context.Context, id string, show bool) error {
	return ErrNotConnected
}

func (c *NullController) RouteAudio(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber is a no-op event subscriber used with NullController.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan Event {
	// Channel is never sent to; callers should check IsConnected() on the controller
	return make(chan Event)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan Event) {
	close(ch)
}

func (s *NullEventSubscriber) SubscribeAlerts() chan Alert {
	return make(chan Alert)
}

func (s *NullEventSubscriber) UnsubscribeAlerts(ch chan Alert) {
	close(ch)
}
