// Package battery turns diagnostic facts into per-device battery readings.
package battery

import (
	"strconv"
	"strings"

	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
)

// Extract reads the battery levels reported for target among the dump's
// connected devices. The first entry whose address matches wins. With no
// match every level is nil.
func Extract(dump *facts.Dump, target string) device.BatteryReading {
	want := address.Normalize(target)
	if dump == nil || want == "" {
		return device.BatteryReading{}
	}

	for _, ne := range dump.ConnectedEntries() {
		if address.Normalize(ne.Entry.Address()) != want {
			continue
		}
		reading := device.BatteryReading{
			Case:    percentField(ne.Entry, facts.KeyBatteryCase),
			Left:    percentField(ne.Entry, facts.KeyBatteryLeft),
			Right:   percentField(ne.Entry, facts.KeyBatteryRight),
			General: percentField(ne.Entry, facts.KeyBatteryGeneric),
		}
		if reading.General == nil {
			// Non split accessories (mice, keyboards) report a "main" level.
			reading.General = percentField(ne.Entry, facts.KeyBatteryMain)
		}
		return reading
	}
	return device.BatteryReading{}
}

func percentField(e facts.DumpEntry, key string) *int {
	raw, ok := e.String(key)
	if !ok {
		return nil
	}
	lvl, ok := ParsePercent(raw)
	if !ok {
		return nil
	}
	return &lvl
}

// ParsePercent parses "80%", "80 %" or "80" into 80. Values outside 0..100
// are rejected.
func ParsePercent(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}
