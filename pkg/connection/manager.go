// Package connection drives user-requested device connections through a
// bounded retry state machine.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
)

const (
	// MaxAttempts bounds connect attempts per manual request.
	MaxAttempts = 3
	// DefaultTimeout is how long an attempt may stay in Connecting.
	DefaultTimeout = 10 * time.Second
	// DefaultRediscoveryDelay is the wait after a discovery scan before retrying.
	DefaultRediscoveryDelay = 3 * time.Second
)

// Manager owns per-device connection state.
type Manager struct {
	pairing          device.PairingSource
	sched            Scheduler
	refresh          func()
	now              func() time.Time
	timeout          time.Duration
	rediscoveryDelay time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler replaces the timer-backed scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithRefresh sets the callback that requests a registry pass.
func WithRefresh(f func()) Option {
	return func(m *Manager) { m.refresh = f }
}

// WithClock injects the clock used for LastAttemptAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithRediscoveryDelay overrides DefaultRediscoveryDelay.
func WithRediscoveryDelay(d time.Duration) Option {
	return func(m *Manager) { m.rediscoveryDelay = d }
}

// NewManager creates a Manager over a pairing source.
func NewManager(pairing device.PairingSource, opts ...Option) *Manager {
	m := &Manager{
		pairing:          pairing,
		sched:            TimerScheduler{},
		refresh:          func() {},
		now:              time.Now,
		timeout:          DefaultTimeout,
		rediscoveryDelay: DefaultRediscoveryDelay,
		entries:          make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) entry(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		e = &entry{}
		m.entries[id] = e
	}
	return e
}

// State returns the connection phase for addr.
func (m *Manager) State(addr string) State {
	e := m.entry(address.Normalize(addr))
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Attempt returns the attempt counter for addr.
func (m *Manager) Attempt(addr string) Attempt {
	e := m.entry(address.Normalize(addr))
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempt
}

// Connect starts a fresh connection request. It returns once the first
// attempt is issued; the outcome arrives through the registry.
func (m *Manager) Connect(ctx context.Context, addr string) error {
	id := address.Normalize(addr)
	if id == "" {
		return fmt.Errorf("connect: %w", device.ErrNotFound)
	}

	if connected, err := m.pairing.IsConnected(ctx, addr); err == nil && connected {
		log.Debug().Str("id", id).Msg("Already connected, nothing to do")
		return nil
	}

	e := m.entry(id)
	e.mu.Lock()
	busy := e.state == Connecting || e.pending()
	e.mu.Unlock()
	if busy {
		log.Debug().Str("id", id).Msg("Connection already in progress")
		return nil
	}

	if _, err := m.pairing.Lookup(ctx, addr); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			m.rediscover(ctx, id, addr)
			return nil
		}
		return fmt.Errorf("resolve %s: %w", id, err)
	}

	e.mu.Lock()
	e.attempt.Count = 0
	e.mu.Unlock()
	m.attempt(ctx, id, addr)
	return nil
}

// attempt issues one connect call and arms its timeout.
func (m *Manager) attempt(ctx context.Context, id, addr string) {
	e := m.entry(id)
	e.mu.Lock()
	if e.attempt.Count >= MaxAttempts {
		e.cancel()
		e.state = Exhausted
		e.attempt.Count = 0
		e.mu.Unlock()
		m.refresh()
		return
	}
	e.cancel()
	e.rediscovering = false
	e.attempt.Count++
	e.attempt.LastAttemptAt = m.now()
	e.state = Connecting
	gen := e.generation
	count := e.attempt.Count
	e.mu.Unlock()

	log.Info().Str("id", id).Int("attempt", count).Msg("Connecting")
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.pairing.Connect(callCtx, addr)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("id", id).Int("attempt", count).Msg("Connect call failed")
		m.resolve(id, addr, gen, false)
		return
	}

	// The timeout starts once the call returns, so a slow command cannot
	// overlap with the next attempt.
	e.mu.Lock()
	if e.generation == gen && e.state == Connecting {
		e.stop = m.sched.AfterFunc(m.timeout, func() { m.onTimeout(id, addr, gen) })
	}
	e.mu.Unlock()
}

func (m *Manager) onTimeout(id, addr string, gen uint64) {
	e := m.entry(id)
	e.mu.Lock()
	stale := e.generation != gen || e.state != Connecting
	e.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	connected, err := m.pairing.IsConnected(ctx, addr)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Link status unavailable after timeout")
	}
	m.resolve(id, addr, gen, err == nil && connected)
}

// resolve ends the Connecting phase of attempt gen.
func (m *Manager) resolve(id, addr string, gen uint64, connected bool) {
	e := m.entry(id)
	e.mu.Lock()
	if e.generation != gen || e.state != Connecting {
		e.mu.Unlock()
		return
	}
	e.cancel()

	if connected {
		e.state = Connected
		e.attempt.Count = 0
		e.mu.Unlock()
		log.Info().Str("id", id).Msg("Connected")
		m.refresh()
		return
	}

	e.state = Failed
	if e.attempt.Count < MaxAttempts {
		next := e.generation
		e.stop = m.sched.AfterFunc(0, func() { m.retry(id, addr, next) })
		e.mu.Unlock()
		return
	}

	e.state = Exhausted
	e.attempt.Count = 0
	e.mu.Unlock()
	log.Warn().Str("id", id).Int("attempts", MaxAttempts).Msg("Connection attempts exhausted")
	m.refresh()
}

func (m *Manager) retry(id, addr string, gen uint64) {
	e := m.entry(id)
	e.mu.Lock()
	if e.generation != gen || e.state != Failed {
		e.mu.Unlock()
		return
	}
	e.stop = nil
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	m.attempt(ctx, id, addr)
}

// rediscover scans for devices, then retries the connect once after the
// rediscovery delay. A second resolution failure ends the request.
func (m *Manager) rediscover(ctx context.Context, id, addr string) {
	e := m.entry(id)
	e.mu.Lock()
	if e.rediscovering {
		e.mu.Unlock()
		return
	}
	e.cancel()
	e.rediscovering = true
	e.attempt.Count = 0
	gen := e.generation
	e.mu.Unlock()

	log.Info().Str("id", id).Msg("Device not resolvable, starting discovery")
	if err := m.pairing.Inquiry(ctx); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Discovery scan failed")
	}

	e.mu.Lock()
	if e.generation == gen {
		e.stop = m.sched.AfterFunc(m.rediscoveryDelay, func() { m.afterDiscovery(id, addr, gen) })
	} else {
		// superseded by another transition during the scan
		e.rediscovering = false
	}
	e.mu.Unlock()
}

func (m *Manager) afterDiscovery(id, addr string, gen uint64) {
	e := m.entry(id)
	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.stop = nil
	e.rediscovering = false
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if _, err := m.pairing.Lookup(ctx, addr); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Device still not resolvable after discovery")
		return
	}
	m.attempt(ctx, id, addr)
}

// Disconnect drops the link. It is a no-op when the device is not connected.
func (m *Manager) Disconnect(ctx context.Context, addr string) error {
	id := address.Normalize(addr)
	if id == "" {
		return fmt.Errorf("disconnect: %w", device.ErrNotFound)
	}
	connected, err := m.pairing.IsConnected(ctx, addr)
	if err == nil && !connected {
		log.Debug().Str("id", id).Msg("Not connected, nothing to disconnect")
		return nil
	}

	e := m.entry(id)
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()

	err = m.pairing.Disconnect(ctx, addr)

	e.mu.Lock()
	e.attempt.Count = 0
	e.state = Idle
	e.rediscovering = false
	e.mu.Unlock()
	m.refresh()

	if err != nil {
		return fmt.Errorf("disconnect %s: %w", id, err)
	}
	return nil
}

// HandleLinkEvent applies an OS link notification and requests a refresh.
func (m *Manager) HandleLinkEvent(ev device.LinkEvent) {
	id := address.Normalize(ev.Address)
	if id == "" {
		return
	}
	e := m.entry(id)

	switch ev.Kind {
	case device.LinkConnected:
		e.mu.Lock()
		e.cancel()
		e.state = Connected
		e.attempt.Count = 0
		e.rediscovering = false
		e.mu.Unlock()
	case device.LinkDisconnected:
		e.mu.Lock()
		if e.state != Connecting && !(e.state == Failed && e.pending()) {
			e.state = Idle
		}
		e.mu.Unlock()
	case device.LinkConnectFailed:
		e.mu.Lock()
		connecting := e.state == Connecting
		gen := e.generation
		e.mu.Unlock()
		if connecting {
			m.resolve(id, ev.Address, gen, false)
		}
	}

	log.Debug().Str("id", id).Str("kind", string(ev.Kind)).Msg("Link event")
	m.refresh()
}

// Watch applies link events from ch until it closes or ctx ends.
func (m *Manager) Watch(ctx context.Context, ch <-chan device.LinkEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			m.HandleLinkEvent(ev)
		}
	}
}

// Close cancels every pending task.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.mu.Lock()
		e.cancel()
		e.mu.Unlock()
	}
}
