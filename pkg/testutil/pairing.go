package testutil

import (
	"context"
	"sync"

	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
)

// FakePairing is an in-memory device.PairingSource.
type FakePairing struct {
	mu          sync.Mutex
	devices     []device.PairedDevice
	connected   map[string]bool
	hidden      map[string]bool
	ListErr     error
	ConnectErr  error
	connects    map[string]int
	disconnects map[string]int
	inquiries   int
	// OnInquiry runs during Inquiry, e.g. to make a hidden device resolvable
	OnInquiry func()
	// OnConnect runs during Connect with the caller's context
	OnConnect func(ctx context.Context)
}

// NewFakePairing creates a pairing source with the given devices.
func NewFakePairing(devices ...device.PairedDevice) *FakePairing {
	return &FakePairing{
		devices:     devices,
		connected:   make(map[string]bool),
		hidden:      make(map[string]bool),
		connects:    make(map[string]int),
		disconnects: make(map[string]int),
	}
}

// SetDevices replaces the paired list.
func (p *FakePairing) SetDevices(devices ...device.PairedDevice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices = devices
}

// SetConnected sets the live status of addr.
func (p *FakePairing) SetConnected(addr string, connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected[address.Normalize(addr)] = connected
}

// Hide makes Lookup fail for addr until Reveal.
func (p *FakePairing) Hide(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hidden[address.Normalize(addr)] = true
}

// Reveal undoes Hide.
func (p *FakePairing) Reveal(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.hidden, address.Normalize(addr))
}

func (p *FakePairing) ListPaired(context.Context) ([]device.PairedDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	return append([]device.PairedDevice(nil), p.devices...), nil
}

func (p *FakePairing) Lookup(_ context.Context, addr string) (*device.PairedDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := address.Normalize(addr)
	if p.hidden[n] {
		return nil, device.ErrNotFound
	}
	for _, d := range p.devices {
		if address.Normalize(d.Address) == n {
			d := d
			return &d, nil
		}
	}
	return nil, device.ErrNotFound
}

func (p *FakePairing) IsConnected(_ context.Context, addr string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected[address.Normalize(addr)], nil
}

func (p *FakePairing) Connect(ctx context.Context, addr string) error {
	p.mu.Lock()
	p.connects[address.Normalize(addr)]++
	hook, err := p.OnConnect, p.ConnectErr
	p.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return err
}

func (p *FakePairing) Disconnect(_ context.Context, addr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnects[address.Normalize(addr)]++
	p.connected[address.Normalize(addr)] = false
	return nil
}

func (p *FakePairing) Inquiry(context.Context) error {
	p.mu.Lock()
	p.inquiries++
	hook := p.OnInquiry
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// Connects returns how many connect calls addr received.
func (p *FakePairing) Connects(addr string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects[address.Normalize(addr)]
}

// Disconnects returns how many disconnect calls addr received.
func (p *FakePairing) Disconnects(addr string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnects[address.Normalize(addr)]
}

// Inquiries returns how many discovery scans ran.
func (p *FakePairing) Inquiries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inquiries
}
