package registry

import (
	"sort"
	"time"

	"github.com/urmzd/bluebar/pkg/device"
)

// Diff compares two snapshots. Additions and removals are decided by ID
// membership; devices present in both appear only when a field changed.
// Events are ordered by ID.
func Diff(prev, next device.Snapshot, at time.Time) []device.Event {
	ids := make([]string, 0, len(prev)+len(next))
	seen := make(map[string]struct{}, len(prev)+len(next))
	for id := range prev {
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	for id := range next {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var events []device.Event
	for _, id := range ids {
		old, hadOld := prev[id]
		cur, hasCur := next[id]
		switch {
		case !hadOld:
			d := cur
			events = append(events, device.Event{Kind: device.EventDeviceAdded, ID: id, Device: &d, Timestamp: at})
		case !hasCur:
			d := old
			events = append(events, device.Event{Kind: device.EventDeviceRemoved, ID: id, Device: &d, Timestamp: at})
		default:
			if fields := ChangedFields(old, cur); len(fields) > 0 {
				d := cur
				events = append(events, device.Event{Kind: device.EventDeviceChanged, ID: id, Device: &d, Fields: fields, Timestamp: at})
			}
		}
	}
	return events
}

// ChangedFields lists the fields that differ between a and b.
func ChangedFields(a, b device.Device) []device.Field {
	var fields []device.Field
	if a.Name != b.Name {
		fields = append(fields, device.FieldName)
	}
	if a.Address != b.Address {
		fields = append(fields, device.FieldAddress)
	}
	if a.Connected != b.Connected {
		fields = append(fields, device.FieldConnected)
	}
	if !sameLevel(a.BatteryGeneral, b.BatteryGeneral) {
		fields = append(fields, device.FieldBatteryGeneral)
	}
	if !sameLevel(a.BatteryLeft, b.BatteryLeft) {
		fields = append(fields, device.FieldBatteryLeft)
	}
	if !sameLevel(a.BatteryRight, b.BatteryRight) {
		fields = append(fields, device.FieldBatteryRight)
	}
	if !sameLevel(a.BatteryCase, b.BatteryCase) {
		fields = append(fields, device.FieldBatteryCase)
	}
	if a.IconOverride != b.IconOverride {
		fields = append(fields, device.FieldIconOverride)
	}
	if a.ShowIcon != b.ShowIcon {
		fields = append(fields, device.FieldShowIcon)
	}
	return fields
}

func sameLevel(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
