// Package facts wraps the external utilities and OS APIs that report
// Bluetooth device and battery facts. Every fetch degrades to "no data" on
// failure; callers never see an error from this package's fetch methods.
package facts

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/device/schema"
)

// DumpTTL is how long a diagnostic dump is reused.
const DumpTTL = 5 * time.Second

// Gateway is the single entry point to external fact sources.
type Gateway struct {
	pairing   device.PairingSource
	runner    Runner
	validator *schema.Validator
	dump      *Cache[*Dump]
	now       func() time.Time
	dumpTTL   time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock injects the clock used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithDumpTTL overrides DumpTTL.
func WithDumpTTL(ttl time.Duration) Option {
	return func(g *Gateway) { g.dumpTTL = ttl }
}

// NewGateway creates a gateway over a pairing source and a command runner.
func NewGateway(pairing device.PairingSource, runner Runner, validator *schema.Validator, opts ...Option) *Gateway {
	g := &Gateway{
		pairing:   pairing,
		runner:    runner,
		validator: validator,
		now:       time.Now,
		dumpTTL:   DumpTTL,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.validator == nil {
		g.validator = schema.NewValidator()
	}
	g.dump = NewCache[*Dump](g.dumpTTL, g.now)
	return g
}

// Pairing returns the underlying pairing source.
func (g *Gateway) Pairing() device.PairingSource {
	return g.pairing
}

// FetchPairedDevices returns the paired devices, or nil when the source fails.
func (g *Gateway) FetchPairedDevices(ctx context.Context) []device.PairedDevice {
	devices, err := g.pairing.ListPaired(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Paired device list unavailable")
		return nil
	}
	return devices
}

// IsConnected returns the live link status; failures read as disconnected.
func (g *Gateway) IsConnected(ctx context.Context, addr string) bool {
	if address.Normalize(addr) == "" {
		return false
	}
	connected, err := g.pairing.IsConnected(ctx, addr)
	if err != nil {
		log.Debug().Err(err).Str("address", addr).Msg("Connection status unavailable")
		return false
	}
	return connected
}

// FetchDiagnosticDump returns the cached dump, running system_profiler at
// most once per TTL window. Nil means no data.
func (g *Gateway) FetchDiagnosticDump(ctx context.Context) *Dump {
	return g.dump.Get(ctx, g.fetchDump)
}

func (g *Gateway) fetchDump(ctx context.Context) *Dump {
	out, err := g.runner.Run(ctx, "system_profiler", "SPBluetoothDataType", "-json")
	if err != nil {
		log.Warn().Err(err).Msg("Diagnostic dump unavailable")
		return nil
	}
	if err := g.validator.ValidateDump(out); err != nil {
		log.Warn().Err(err).Msg("Diagnostic dump malformed")
		return nil
	}
	d, err := ParseDump(out)
	if err != nil {
		log.Warn().Err(err).Msg("Diagnostic dump malformed")
		return nil
	}
	return d
}
