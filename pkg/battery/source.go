package battery

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
)

// Source is one provider of battery readings.
type Source interface {
	Name() string
	Read(ctx context.Context, d device.PairedDevice) device.BatteryReading
}

// DumpSource reads levels from the cached diagnostic dump.
type DumpSource struct {
	gateway *facts.Gateway
}

// NewDumpSource creates a DumpSource.
func NewDumpSource(g *facts.Gateway) *DumpSource {
	return &DumpSource{gateway: g}
}

func (s *DumpSource) Name() string { return "diagnostic_dump" }

func (s *DumpSource) Read(ctx context.Context, d device.PairedDevice) device.BatteryReading {
	return Extract(s.gateway.FetchDiagnosticDump(ctx), d.Address)
}

// HIDSource asks the IORegistry for a single battery percentage. It only
// ever fills General.
type HIDSource struct {
	gateway *facts.Gateway
}

// NewHIDSource creates a HIDSource.
func NewHIDSource(g *facts.Gateway) *HIDSource {
	return &HIDSource{gateway: g}
}

func (s *HIDSource) Name() string { return "hid_registry" }

func (s *HIDSource) Read(ctx context.Context, d device.PairedDevice) device.BatteryReading {
	lvl := s.gateway.FetchHIDBatteryLevel(ctx, typeHint(ctx, s.gateway, d), d.Name)
	return device.BatteryReading{General: lvl}
}

// typeHint derives keyboard/mouse from the dump's minor type, or the name.
func typeHint(ctx context.Context, g *facts.Gateway, d device.PairedDevice) string {
	hint := strings.ToLower(d.Name)
	if ne, ok := g.FetchDiagnosticDump(ctx).EntryForAddress(d.Address); ok {
		if minor, ok := ne.Entry.String(facts.KeyMinorType); ok {
			hint = strings.ToLower(minor)
		}
	}
	switch {
	case strings.Contains(hint, "keyboard"):
		return "keyboard"
	case strings.Contains(hint, "mouse"):
		return "mouse"
	default:
		return ""
	}
}

// Chain tries each source in order and keeps the first non-empty reading.
type Chain []Source

// Read implements Source over the whole chain.
func (c Chain) Read(ctx context.Context, d device.PairedDevice) device.BatteryReading {
	for _, src := range c {
		reading := src.Read(ctx, d)
		if !reading.IsEmpty() {
			log.Debug().Str("source", src.Name()).Str("address", d.Address).Msg("Battery reading found")
			return reading
		}
	}
	return device.BatteryReading{}
}

func (c Chain) Name() string { return "chain" }
