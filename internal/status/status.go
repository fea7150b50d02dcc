// Package status provides a thread-safe status tracker for the counterwatch daemon.
// It is read by HTTP handlers and by the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/counterwatch/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Source      string
	Checks      []string
	IntervalMs  int64
	HeartbeatMs int64
	ReadPolicy  string
	Broker      string
	HTTPAddr    string
}

// MonitorStatus is one monitor's state as of the last processed frame.
type MonitorStatus struct {
	Name        string
	State       logic.State
	Label       string
	EnterStreak int
	ExitStreak  int
	Counts      logic.EventCounts
	LastValue   float64
	LastError   string
}

// FromMonitor captures m's current state.
func FromMonitor(m *logic.Monitor) MonitorStatus {
	s := m.CurrentState()
	return MonitorStatus{
		Name:        m.Name(),
		State:       s.State,
		Label:       s.Label,
		EnterStreak: s.EnterStreak,
		ExitStreak:  s.ExitStreak,
		Counts:      m.Counts(),
	}
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Monitors        []MonitorStatus
	FramesProcessed int
	LastFrame       int
	ReadErrors      int
	ProbeErrors     int
	AlarmOn         bool
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	Host            *HostInfo
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Monitor returns the named monitor's status.
func (s Snapshot) Monitor(name string) (MonitorStatus, bool) {
	for _, m := range s.Monitors {
		if m.Name == name {
			return m, true
		}
	}
	return MonitorStatus{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			LastFrame: -1,
		},
	}
}

// Update records the monitors' state after a frame.
// Called from runLoop on every processed frame.
func (t *Tracker) Update(frame int, monitors []MonitorStatus) {
	cp := make([]MonitorStatus, len(monitors))
	copy(cp, monitors)

	t.mu.Lock()
	t.snap.Monitors = cp
	t.snap.LastFrame = frame
	t.snap.FramesProcessed++
	t.mu.Unlock()
}

// AddReadError counts a failed frame read.
func (t *Tracker) AddReadError() {
	t.mu.Lock()
	t.snap.ReadErrors++
	t.mu.Unlock()
}

// AddProbeError counts a frame on which a probe failed.
func (t *Tracker) AddProbeError() {
	t.mu.Lock()
	t.snap.ProbeErrors++
	t.mu.Unlock()
}

// SetAlarm sets whether the alarm output is on.
func (t *Tracker) SetAlarm(on bool) {
	t.mu.Lock()
	t.snap.AlarmOn = on
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetHost sets the host statistics.
func (t *Tracker) SetHost(info *HostInfo) {
	t.mu.Lock()
	t.snap.Host = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Monitors = append([]MonitorStatus(nil), t.snap.Monitors...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
