package registry

import (
	"context"

	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
)

// Facts is the subset of the fact gateway a pass needs.
type Facts interface {
	FetchPairedDevices(ctx context.Context) []device.PairedDevice
	FetchDiagnosticDump(ctx context.Context) *facts.Dump
	IsConnected(ctx context.Context, addr string) bool
}

// BatterySource produces a reading for one connected device.
type BatterySource interface {
	Read(ctx context.Context, d device.PairedDevice) device.BatteryReading
}

// OverrideStore holds the user's per-device presentation choices.
type OverrideStore interface {
	// IconOverride returns the custom icon for id, or "" when none is set
	IconOverride(ctx context.Context, id string) (string, error)

	// Visibility returns the id -> shouldShowIcon map
	Visibility(ctx context.Context) (map[string]bool, error)
}

// Publisher receives the diff of every pass that changed something.
type Publisher interface {
	Publish(diff device.Diff)
}

type noOverrides struct{}

func (noOverrides) IconOverride(context.Context, string) (string, error) { return "", nil }

func (noOverrides) Visibility(context.Context) (map[string]bool, error) { return nil, nil }

type noPublisher struct{}

func (noPublisher) Publish(device.Diff) {}
