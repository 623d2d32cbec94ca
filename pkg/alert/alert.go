// Package alert raises one low-battery signal each time a connected
// device's battery crosses into the low range.
package alert

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/bluebar/pkg/device"
)

// DefaultThreshold is the low-battery level, inclusive.
const DefaultThreshold = 20

// Notifier delivers alerts.
type Notifier interface {
	Notify(alert device.Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(device.Alert)

// Notify implements Notifier.
func (f NotifierFunc) Notify(a device.Alert) { f(a) }

// LogNotifier writes alerts to the global logger.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(a device.Alert) {
	log.Warn().
		Str("id", a.DeviceID).
		Str("name", a.Name).
		Int("level", a.Level).
		Int("threshold", a.Threshold).
		Msg("Low battery")
}

// Alerter tracks, per device, whether the low-battery alert already fired.
type Alerter struct {
	notifiers []Notifier
	now       func() time.Time

	mu        sync.Mutex
	threshold int
	latched   map[string]bool
}

// New creates an Alerter. A threshold <= 0 selects DefaultThreshold.
func New(threshold int, notifiers ...Notifier) *Alerter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Alerter{
		notifiers: notifiers,
		now:       time.Now,
		threshold: threshold,
		latched:   make(map[string]bool),
	}
}

// SetThreshold changes the threshold for future crossings.
func (a *Alerter) SetThreshold(threshold int) {
	if threshold <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = threshold
}

// Handle consumes one registry diff. It matches events.Handler.
func (a *Alerter) Handle(diff device.Diff) {
	var fire []device.Alert

	a.mu.Lock()
	for _, evt := range diff.Events {
		if evt.Kind == device.EventDeviceRemoved || evt.Device == nil {
			delete(a.latched, evt.ID)
			continue
		}
		if alert, ok := a.observe(*evt.Device, evt.Timestamp); ok {
			fire = append(fire, alert)
		}
	}
	a.mu.Unlock()

	for _, alert := range fire {
		for _, n := range a.notifiers {
			n.Notify(alert)
		}
	}
}

// observe updates the latch for d and reports a new crossing.
func (a *Alerter) observe(d device.Device, at time.Time) (device.Alert, bool) {
	if !d.Connected {
		delete(a.latched, d.ID)
		return device.Alert{}, false
	}
	level, known := d.LowestLevel()
	if !known {
		return device.Alert{}, false
	}
	if level > a.threshold {
		delete(a.latched, d.ID)
		return device.Alert{}, false
	}
	if a.latched[d.ID] {
		return device.Alert{}, false
	}
	a.latched[d.ID] = true
	if at.IsZero() {
		at = a.now()
	}
	return device.Alert{
		DeviceID:  d.ID,
		Name:      d.Name,
		Level:     level,
		Threshold: a.threshold,
		Timestamp: at,
	}, true
}
