package facts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/urmzd/bluebar/pkg/address"
)

// Dump is the decoded `system_profiler SPBluetoothDataType -json` output.
type Dump struct {
	Sections []DumpSection `json:"SPBluetoothDataType"`
}

// DumpSection is one controller's view of its accessories.
type DumpSection struct {
	Connected    []map[string]DumpEntry `json:"device_connected"`
	NotConnected []map[string]DumpEntry `json:"device_not_connected"`
}

// DumpEntry holds the fields of one accessory. Values are kept untyped so a
// malformed field only loses that field.
type DumpEntry map[string]any

// NamedEntry pairs an entry with the display name it is keyed under.
type NamedEntry struct {
	Name  string
	Entry DumpEntry
}

// Keys read from dump entries.
const (
	KeyAddress        = "device_address"
	KeyMinorType      = "device_minorType"
	KeyBatteryCase    = "device_batteryLevelCase"
	KeyBatteryLeft    = "device_batteryLevelLeft"
	KeyBatteryRight   = "device_batteryLevelRight"
	KeyBatteryGeneric = "device_batteryLevel"
	KeyBatteryMain    = "device_batteryLevelMain"
)

// ParseDump decodes raw diagnostic output.
func ParseDump(raw []byte) (*Dump, error) {
	var d Dump
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse diagnostic dump: %w", err)
	}
	return &d, nil
}

// String returns the field as a string. Numbers are formatted without a
// fractional part when integral.
func (e DumpEntry) String(key string) (string, bool) {
	switch v := e[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// Address returns the entry's raw address, or "".
func (e DumpEntry) Address() string {
	s, _ := e.String(KeyAddress)
	return s
}

// ConnectedEntries lists entries under device_connected in dump order.
func (d *Dump) ConnectedEntries() []NamedEntry {
	if d == nil {
		return nil
	}
	var out []NamedEntry
	for _, sec := range d.Sections {
		out = appendEntries(out, sec.Connected)
	}
	return out
}

// AllEntries lists connected entries followed by not-connected ones.
func (d *Dump) AllEntries() []NamedEntry {
	if d == nil {
		return nil
	}
	out := d.ConnectedEntries()
	for _, sec := range d.Sections {
		out = appendEntries(out, sec.NotConnected)
	}
	return out
}

// NameForAddress resolves the system display name for addr.
func (d *Dump) NameForAddress(addr string) (string, bool) {
	target := address.Normalize(addr)
	if target == "" {
		return "", false
	}
	for _, ne := range d.AllEntries() {
		if address.Normalize(ne.Entry.Address()) == target && ne.Name != "" {
			return ne.Name, true
		}
	}
	return "", false
}

// EntryForAddress returns the first entry of any connection state whose address matches.
func (d *Dump) EntryForAddress(addr string) (NamedEntry, bool) {
	target := address.Normalize(addr)
	if target == "" {
		return NamedEntry{}, false
	}
	for _, ne := range d.AllEntries() {
		if address.Normalize(ne.Entry.Address()) == target {
			return ne, true
		}
	}
	return NamedEntry{}, false
}

func appendEntries(out []NamedEntry, items []map[string]DumpEntry) []NamedEntry {
	for _, item := range items {
		names := make([]string, 0, len(item))
		for name := range item {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, NamedEntry{Name: name, Entry: item[name]})
		}
	}
	return out
}
