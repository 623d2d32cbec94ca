package connection

import (
	"sync"
	"time"
)

// State is the connection phase of one device.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	Failed
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Attempt counts connection attempts for one device.
type Attempt struct {
	Count         int       `json:"count"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}

type entry struct {
	mu      sync.Mutex
	state   State
	attempt Attempt
	// stop cancels the pending timeout, retry or rediscovery task
	stop func() bool
	// generation invalidates tasks scheduled before the last transition
	generation    uint64
	rediscovering bool
}

func (e *entry) cancel() {
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
	e.generation++
}

func (e *entry) pending() bool {
	return e.stop != nil
}
