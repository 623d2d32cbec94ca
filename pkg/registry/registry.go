// Package registry reconciles paired-device identities and battery
// telemetry into one canonical device snapshot.
//
// All snapshot mutation goes through Reconcile. Timers, OS events and user
// actions only request a pass; overlapping requests are coalesced.
package registry

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
)

// DefaultInterval is the periodic reconciliation interval.
const DefaultInterval = 30 * time.Second

// maxConcurrentDevices bounds per-device work within a pass.
const maxConcurrentDevices = 4

// Reconciler owns the device snapshot.
type Reconciler struct {
	facts     Facts
	battery   BatterySource
	overrides OverrideStore
	publisher Publisher
	now       func() time.Time
	interval  time.Duration

	mu       sync.RWMutex
	snapshot device.Snapshot
	lastPass time.Time

	inFlight atomic.Bool
	trigger  chan struct{}
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithOverrides sets the store consulted for icon overrides and visibility.
func WithOverrides(s OverrideStore) Option {
	return func(r *Reconciler) { r.overrides = s }
}

// WithPublisher sets where diffs are published.
func WithPublisher(p Publisher) Option {
	return func(r *Reconciler) { r.publisher = p }
}

// WithClock injects the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithInterval sets the periodic pass interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// New creates a Reconciler with an empty snapshot.
func New(f Facts, battery BatterySource, opts ...Option) *Reconciler {
	r := &Reconciler{
		facts:     f,
		battery:   battery,
		overrides: noOverrides{},
		publisher: noPublisher{},
		now:       time.Now,
		interval:  DefaultInterval,
		snapshot:  device.Snapshot{},
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns a copy of the current snapshot.
func (r *Reconciler) Snapshot() device.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot.Clone()
}

// Device finds a device by ID, address (any format) or exact name.
func (r *Reconciler) Device(key string) (device.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.snapshot[key]; ok {
		return d, true
	}
	if d, ok := r.snapshot[address.Normalize(key)]; ok {
		return d, true
	}
	for _, d := range r.snapshot {
		if d.Name == key {
			return d, true
		}
	}
	return device.Device{}, false
}

// LastPass returns when the last pass completed.
func (r *Reconciler) LastPass() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastPass
}

// Reconcile runs one pass and returns the new snapshot. If a pass is
// already running the call returns the current snapshot without running.
func (r *Reconciler) Reconcile(ctx context.Context) device.Snapshot {
	if !r.inFlight.CompareAndSwap(false, true) {
		log.Debug().Msg("Reconciliation already in flight, coalescing")
		return r.Snapshot()
	}
	defer r.inFlight.Store(false)

	passID := uuid.NewString()
	next := r.build(ctx, passID)

	r.mu.Lock()
	prev := r.snapshot
	at := r.now()
	events := Diff(prev, next, at)
	r.snapshot = next
	r.lastPass = at
	r.mu.Unlock()

	log.Debug().
		Str("pass", passID).
		Int("devices", len(next)).
		Int("changes", len(events)).
		Msg("Reconciliation pass complete")

	if len(events) > 0 {
		r.publisher.Publish(device.Diff{PassID: passID, Events: events, At: at})
	}
	return next.Clone()
}

// Request asks for a pass without waiting. Requests made while one is
// pending collapse into it.
func (r *Reconciler) Request() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run performs an initial pass, then one per interval tick and per
// Request, until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("Reconciliation loop starting")
	r.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("Reconciliation loop exiting")
			return ctx.Err()
		case <-ticker.C:
			r.Reconcile(ctx)
		case <-r.trigger:
			r.Reconcile(ctx)
		}
	}
}

// build gathers fresh facts into a new snapshot. It never reads the
// current snapshot, so stale state cannot leak into the result.
func (r *Reconciler) build(ctx context.Context, passID string) device.Snapshot {
	paired := r.facts.FetchPairedDevices(ctx)
	next := device.Snapshot{}
	if len(paired) == 0 {
		return next
	}

	dump := r.facts.FetchDiagnosticDump(ctx)
	visibility, err := r.overrides.Visibility(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Icon visibility unavailable")
	}

	results := make([]device.Device, len(paired))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDevices)
	for i, pd := range paired {
		g.Go(func() error {
			results[i] = r.assemble(gctx, pd, dump)
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range results {
		if d.ID == "" {
			log.Debug().Str("pass", passID).Msg("Skipping paired device without address or name")
			continue
		}
		if _, dup := next[d.ID]; dup {
			log.Warn().Str("pass", passID).Str("id", d.ID).Msg("Duplicate paired device ignored")
			continue
		}
		icon, err := r.overrides.IconOverride(ctx, d.ID)
		if err != nil {
			log.Warn().Err(err).Str("id", d.ID).Msg("Icon override unavailable")
		}
		d.IconOverride = icon
		d.ShowIcon = true
		if show, ok := visibility[d.ID]; ok {
			d.ShowIcon = show
		}
		next[d.ID] = d
	}
	return next
}

func (r *Reconciler) assemble(ctx context.Context, pd device.PairedDevice, dump *facts.Dump) device.Device {
	addr := address.Normalize(pd.Address)
	name := strings.TrimSpace(pd.Name)

	d := device.Device{
		ID:      addr,
		Address: addr,
		Name:    name,
	}
	if d.ID == "" {
		d.ID = name
	}
	if sysName, ok := dump.NameForAddress(addr); ok {
		d.Name = sysName
	}
	if addr == "" {
		return d
	}

	d.Connected = r.facts.IsConnected(ctx, pd.Address)
	if !d.Connected {
		return d
	}
	reading := r.battery.Read(ctx, pd)
	d.BatteryGeneral = reading.General
	d.BatteryLeft = reading.Left
	d.BatteryRight = reading.Right
	d.BatteryCase = reading.Case
	return d
}
