package device

import (
	"sort"
	"time"
)

// Device is the canonical record for one paired accessory.
// Battery levels are nil when unknown; a nil level is never the same as 0.
type Device struct {
	ID             string `json:"id"`                        // Normalized address, or name when no address is known
	Name           string `json:"name"`                      // Display name, system-reported when available
	Address        string `json:"address"`                   // Normalized hardware address
	Connected      bool   `json:"connected"`                 // Live status from the pairing source
	BatteryGeneral *int   `json:"battery_general,omitempty"` // Single-cell accessories
	BatteryLeft    *int   `json:"battery_left,omitempty"`    // Split earbuds
	BatteryRight   *int   `json:"battery_right,omitempty"`
	BatteryCase    *int   `json:"battery_case,omitempty"`
	IconOverride   string `json:"icon_override,omitempty"` // User-chosen icon identifier
	ShowIcon       bool   `json:"show_icon"`
}

// IsAppleStyle reports whether the device reports split left/right/case levels.
func (d Device) IsAppleStyle() bool {
	return d.BatteryLeft != nil || d.BatteryRight != nil || d.BatteryCase != nil
}

// LowestLevel returns the lowest known level among general, left and right.
// The case is excluded since it does not power the accessory in use.
func (d Device) LowestLevel() (int, bool) {
	lowest, ok := 0, false
	for _, lvl := range []*int{d.BatteryGeneral, d.BatteryLeft, d.BatteryRight} {
		if lvl == nil {
			continue
		}
		if !ok || *lvl < lowest {
			lowest, ok = *lvl, true
		}
	}
	return lowest, ok
}

// BatteryReading is the per-address result of a battery lookup.
type BatteryReading struct {
	General *int
	Left    *int
	Right   *int
	Case    *int
}

// IsEmpty reports whether no level is known.
func (r BatteryReading) IsEmpty() bool {
	return r.General == nil && r.Left == nil && r.Right == nil && r.Case == nil
}

// PairedDevice is a raw record from the pairing source.
type PairedDevice struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Snapshot maps device ID to device.
type Snapshot map[string]Device

// Clone returns a shallow copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, d := range s {
		out[id] = d
	}
	return out
}

// Sorted returns the devices ordered by ID.
func (s Snapshot) Sorted() []Device {
	out := make([]Device, 0, len(s))
	for _, d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EventKind identifies a registry change.
type EventKind string

const (
	EventDeviceAdded   EventKind = "device_added"
	EventDeviceRemoved EventKind = "device_removed"
	EventDeviceChanged EventKind = "device_changed"
)

// Field names a Device attribute that changed between two passes.
type Field string

const (
	FieldName           Field = "name"
	FieldAddress        Field = "address"
	FieldConnected      Field = "connected"
	FieldBatteryGeneral Field = "battery_general"
	FieldBatteryLeft    Field = "battery_left"
	FieldBatteryRight   Field = "battery_right"
	FieldBatteryCase    Field = "battery_case"
	FieldIconOverride   Field = "icon_override"
	FieldShowIcon       Field = "show_icon"
)

// Event is one entry of a Diff.
type Event struct {
	Kind      EventKind `json:"kind"`
	ID        string    `json:"id"`
	Device    *Device   `json:"device,omitempty"` // New state; previous state for removals
	Fields    []Field   `json:"fields,omitempty"` // Only for EventDeviceChanged
	Timestamp time.Time `json:"timestamp"`
}

// Diff is the set of changes produced by one reconciliation pass.
type Diff struct {
	PassID string    `json:"pass_id"`
	Events []Event   `json:"events"`
	At     time.Time `json:"at"`
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Events) == 0
}

// LinkEventKind identifies an OS-reported connection change.
type LinkEventKind string

const (
	LinkConnected     LinkEventKind = "connected"
	LinkDisconnected  LinkEventKind = "disconnected"
	LinkConnectFailed LinkEventKind = "connect_failed"
)

// LinkEvent is an OS notification about a device's link state.
type LinkEvent struct {
	Kind    LinkEventKind
	Address string
}

// Alert is a low-battery signal for one device.
type Alert struct {
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Level returns a pointer to v, for building battery fields.
func Level(v int) *int {
	return &v
}
