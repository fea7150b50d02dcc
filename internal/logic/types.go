// Package logic contains the pure debounce logic that turns noisy per-frame
// measurements into stable two-state status.
// This package has NO external dependencies (no camera, model, MQTT or OS).
// Time is carried on the inputs and never read from the clock.
package logic

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned when a monitor configuration is unusable.
var ErrInvalidConfig = errors.New("invalid monitor config")

// State is the debounced state of a monitor.
type State string

const (
	StateInactive State = "INACTIVE"
	StateActive   State = "ACTIVE"
)

// Config is the immutable configuration of a Monitor.
type Config struct {
	// EnterThreshold is compared while Inactive: Value >= EnterThreshold qualifies.
	EnterThreshold float64
	// ExitThreshold is compared while Active: Value < ExitThreshold qualifies.
	ExitThreshold float64
	// Consecutive qualifying frames needed to commit a transition.
	MinFramesEnter int
	MinFramesExit  int
	// Display names for the two states, e.g. CLOSED/OPEN.
	InactiveLabel string
	ActiveLabel   string
}

// Signal is a single per-frame measurement.
type Signal struct {
	Frame int
	Time  time.Time
	Value float64
}

// Event is emitted only when a monitor commits a transition.
type Event struct {
	Monitor   string
	From      State
	To        State
	FromLabel string
	ToLabel   string
	Frame     int
	Time      time.Time
	Value     float64
}

// Snapshot is a read-only view of a monitor's state.
type Snapshot struct {
	State       State
	Label       string
	EnterStreak int
	ExitStreak  int
}

// Active reports whether the snapshot is in the Active state.
func (s Snapshot) Active() bool {
	return s.State == StateActive
}

// EventCounts tracks the number of committed transitions since startup.
type EventCounts struct {
	Enter int
	Exit  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
}
