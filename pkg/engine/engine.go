// Package engine assembles the fact gateway, registry, connection manager,
// event bus and alerter into one device.Controller.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/bluebar/pkg/alert"
	"github.com/urmzd/bluebar/pkg/battery"
	"github.com/urmzd/bluebar/pkg/connection"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/device/schema"
	"github.com/urmzd/bluebar/pkg/events"
	"github.com/urmzd/bluebar/pkg/facts"
	"github.com/urmzd/bluebar/pkg/registry"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 64

// OverrideStore persists per-device presentation choices.
type OverrideStore interface {
	registry.OverrideStore
	SetIconOverride(ctx context.Context, id, icon string) error
	SetVisibility(ctx context.Context, id string, show bool) error
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Pairing             device.PairingSource
	Runner              facts.Runner
	Overrides           OverrideStore
	Validator           *schema.Validator
	Scheduler           connection.Scheduler
	Clock               func() time.Time
	PollInterval        time.Duration
	LowBatteryThreshold int
	HIDFallback         bool
}

// Engine implements device.Controller and device.EventSubscriber.
type Engine struct {
	pairing   device.PairingSource
	gateway   *facts.Gateway
	registry  *registry.Reconciler
	conns     *connection.Manager
	bus       *events.Bus
	alerter   *alert.Alerter
	audio     *facts.AudioRouter
	overrides OverrideStore
	validator *schema.Validator

	mu        sync.Mutex
	eventSubs map[chan device.Event]*eventSub
	alertSubs map[chan device.Alert]struct{}
	stopAlert func()
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    bool
}

type eventSub struct {
	stop        chan struct{}
	unsubscribe func()
}

// New builds an engine. Background work starts with Start.
func New(opts Options) *Engine {
	if opts.Pairing == nil {
		opts.Pairing = device.NewNullPairingSource()
	}
	if opts.Runner == nil {
		opts.Runner = facts.NewExecRunner(0)
	}
	if opts.Validator == nil {
		opts.Validator = schema.NewValidator()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Engine{
		pairing:   opts.Pairing,
		bus:       events.NewBus(),
		audio:     facts.NewAudioRouter(opts.Runner),
		overrides: opts.Overrides,
		validator: opts.Validator,
		eventSubs: make(map[chan device.Event]*eventSub),
		alertSubs: make(map[chan device.Alert]struct{}),
	}

	e.gateway = facts.NewGateway(opts.Pairing, opts.Runner, opts.Validator, facts.WithClock(opts.Clock))

	chain := battery.Chain{battery.NewDumpSource(e.gateway)}
	if opts.HIDFallback {
		chain = append(chain, battery.NewHIDSource(e.gateway))
	}

	regOpts := []registry.Option{
		registry.WithPublisher(e.bus),
		registry.WithClock(opts.Clock),
		registry.WithInterval(opts.PollInterval),
	}
	if opts.Overrides != nil {
		regOpts = append(regOpts, registry.WithOverrides(opts.Overrides))
	}
	e.registry = registry.New(e.gateway, chain, regOpts...)

	connOpts := []connection.Option{
		connection.WithRefresh(e.registry.Request),
		connection.WithClock(opts.Clock),
	}
	if opts.Scheduler != nil {
		connOpts = append(connOpts, connection.WithScheduler(opts.Scheduler))
	}
	e.conns = connection.NewManager(opts.Pairing, connOpts...)

	e.alerter = alert.New(opts.LowBatteryThreshold, alert.LogNotifier{}, alert.NotifierFunc(e.broadcastAlert))
	e.stopAlert = e.bus.Subscribe(e.alerter.Handle)

	return e
}

// Start launches the reconciliation loop and, when the pairing source
// reports link changes, the link event pump.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_ = e.registry.Run(ctx)
	}()

	if src, ok := e.pairing.(device.LinkEventSource); ok {
		ch, err := src.LinkEvents(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Link events unavailable, relying on periodic passes")
			return
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.conns.Watch(ctx, ch)
		}()
	}
}

// Close stops background work and closes every subscriber channel.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	e.conns.Close()
	e.stopAlert()

	e.mu.Lock()
	subs := e.eventSubs
	e.eventSubs = map[chan device.Event]*eventSub{}
	alerts := e.alertSubs
	e.alertSubs = map[chan device.Alert]struct{}{}
	e.mu.Unlock()

	for ch, s := range subs {
		close(s.stop)
		s.unsubscribe()
		close(ch)
	}
	for ch := range alerts {
		close(ch)
	}
	e.bus.Close()
}

// Registry exposes the reconciler, for hosts that need LastPass.
func (e *Engine) Registry() *registry.Reconciler {
	return e.registry
}

// Connections exposes the connection manager.
func (e *Engine) Connections() *connection.Manager {
	return e.conns
}

// IsConnected reports whether a real pairing source is attached.
func (e *Engine) IsConnected() bool {
	_, null := e.pairing.(*device.NullPairingSource)
	return !null
}

// ListDevices returns the current snapshot ordered by ID.
func (e *Engine) ListDevices(ctx context.Context) ([]device.Device, error) {
	return e.registry.Snapshot().Sorted(), nil
}

// GetDevice finds a device by ID, address or name.
func (e *Engine) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	d, ok := e.registry.Device(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	return &d, nil
}

func (e *Engine) addressOf(ctx context.Context, id string) (*device.Device, error) {
	d, err := e.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Address == "" {
		return nil, fmt.Errorf("%s has no hardware address: %w", d.Name, device.ErrUnsupported)
	}
	return d, nil
}

// Connect starts a bounded-retry connection request.
func (e *Engine) Connect(ctx context.Context, id string) error {
	d, err := e.addressOf(ctx, id)
	if err != nil {
		return err
	}
	return e.conns.Connect(ctx, d.Address)
}

// Disconnect closes the connection to a device.
func (e *Engine) Disconnect(ctx context.Context, id string) error {
	d, err := e.addressOf(ctx, id)
	if err != nil {
		return err
	}
	return e.conns.Disconnect(ctx, d.Address)
}

// Refresh runs a pass now. If one is already running, the result of the
// previous pass is returned.
func (e *Engine) Refresh(ctx context.Context) ([]device.Device, error) {
	return e.registry.Reconcile(ctx).Sorted(), nil
}

// Scan runs a discovery scan and then a pass.
func (e *Engine) Scan(ctx context.Context) error {
	if err := e.pairing.Inquiry(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	e.registry.Reconcile(ctx)
	return nil
}

// SetIconOverride validates and stores a custom icon for a device.
func (e *Engine) SetIconOverride(ctx context.Context, id, icon string) error {
	if e.overrides == nil {
		return device.ErrUnsupported
	}
	if err := e.validator.Validate(schema.IconOverrideSchema, map[string]any{"icon": icon}); err != nil {
		return fmt.Errorf("%w: %v", device.ErrInvalidInput, err)
	}
	d, err := e.GetDevice(ctx, id)
	if err != nil {
		return err
	}
	if err := e.overrides.SetIconOverride(ctx, d.ID, icon); err != nil {
		return fmt.Errorf("store icon override: %w", err)
	}
	e.reconcile(ctx)
	return nil
}

// SetIconVisibility stores whether a device's icon is shown.
func (e *Engine) SetIconVisibility(ctx context.Context, id string, show bool) error {
	if e.overrides == nil {
		return device.ErrUnsupported
	}
	d, err := e.GetDevice(ctx, id)
	if err != nil {
		return err
	}
	if err := e.overrides.SetVisibility(ctx, d.ID, show); err != nil {
		return fmt.Errorf("store icon visibility: %w", err)
	}
	e.reconcile(ctx)
	return nil
}

// RouteAudio makes the device the default output. Best effort.
func (e *Engine) RouteAudio(ctx context.Context, id string) error {
	d, err := e.GetDevice(ctx, id)
	if err != nil {
		return err
	}
	if !d.Connected {
		return fmt.Errorf("%s: %w", d.Name, device.ErrNotConnected)
	}
	return e.audio.SetDefaultOutput(ctx, d.Name)
}

// reconcile runs a pass now and requests a trailing one, since a pass already
// in flight may have read state before the caller's write.
func (e *Engine) reconcile(ctx context.Context) {
	e.registry.Reconcile(ctx)
	e.registry.Request()
}

// Subscribe returns a channel receiving every registry event.
func (e *Engine) Subscribe() chan device.Event {
	ch := make(chan device.Event, subscriberBuffer)
	s := &eventSub{stop: make(chan struct{})}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	s.unsubscribe = e.bus.Subscribe(func(d device.Diff) {
		for _, evt := range d.Events {
			select {
			case ch <- evt:
			case <-s.stop:
				return
			}
		}
	})
	e.eventSubs[ch] = s
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (e *Engine) Unsubscribe(ch chan device.Event) {
	e.mu.Lock()
	s, ok := e.eventSubs[ch]
	delete(e.eventSubs, ch)
	e.mu.Unlock()
	if !ok {
		return
	}
	close(s.stop)
	s.unsubscribe()
	close(ch)
}

// SubscribeAlerts returns a channel receiving low-battery alerts.
func (e *Engine) SubscribeAlerts() chan device.Alert {
	ch := make(chan device.Alert, subscriberBuffer)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.alertSubs[ch] = struct{}{}
	return ch
}

// UnsubscribeAlerts removes an alert subscription and closes its channel.
func (e *Engine) UnsubscribeAlerts(ch chan device.Alert) {
	e.mu.Lock()
	_, ok := e.alertSubs[ch]
	delete(e.alertSubs, ch)
	e.mu.Unlock()
	if ok {
		close(ch)
	}
}

// broadcastAlert offers a to every alert subscriber without blocking.
func (e *Engine) broadcastAlert(a device.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.alertSubs {
		select {
		case ch <- a:
		default:
			log.Warn().Str("id", a.DeviceID).Msg("Alert subscriber full, dropping alert")
		}
	}
}

var (
	_ device.Controller      = (*Engine)(nil)
	_ device.EventSubscriber = (*Engine)(nil)
)
