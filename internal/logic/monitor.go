package logic

import (
	"fmt"
	"math"
)

// Monitor debounces a per-frame signal into an Inactive/Active state.
//
// Classification is inclusive at the enter boundary only: while Inactive a
// value equal to EnterThreshold qualifies, while Active a value equal to
// ExitThreshold does not.
type Monitor struct {
	name        string
	cfg         Config
	state       State
	enterStreak int
	exitStreak  int
	counts      EventCounts
}

// NewMonitor validates cfg and returns a monitor starting Inactive.
func NewMonitor(name string, cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.InactiveLabel == "" {
		cfg.InactiveLabel = string(StateInactive)
	}
	if cfg.ActiveLabel == "" {
		cfg.ActiveLabel = string(StateActive)
	}
	return &Monitor{
		name:  name,
		cfg:   cfg,
		state: StateInactive,
	}, nil
}

// Validate checks the frame counts and thresholds.
func (c Config) Validate() error {
	if c.MinFramesEnter < 1 {
		return fmt.Errorf("%w: min frames to enter must be >= 1, got %d", ErrInvalidConfig, c.MinFramesEnter)
	}
	if c.MinFramesExit < 1 {
		return fmt.Errorf("%w: min frames to exit must be >= 1, got %d", ErrInvalidConfig, c.MinFramesExit)
	}
	if math.IsNaN(c.EnterThreshold) || math.IsNaN(c.ExitThreshold) {
		return fmt.Errorf("%w: thresholds must be numbers", ErrInvalidConfig)
	}
	return nil
}

// Observe feeds one frame's signal. It must be called once per frame, in
// frame order. It returns an event only on a committed transition.
func (m *Monitor) Observe(sig Signal) *Event {
	if m.state == StateInactive {
		if sig.Value >= m.cfg.EnterThreshold {
			m.enterStreak++
			m.exitStreak = 0
		} else {
			m.enterStreak = 0
		}
		if m.enterStreak >= m.cfg.MinFramesEnter {
			m.counts.Enter++
			return m.commit(StateActive, sig)
		}
		return nil
	}

	if sig.Value < m.cfg.ExitThreshold {
		m.exitStreak++
		m.enterStreak = 0
	} else {
		m.exitStreak = 0
	}
	if m.exitStreak >= m.cfg.MinFramesExit {
		m.counts.Exit++
		return m.commit(StateInactive, sig)
	}
	return nil
}

func (m *Monitor) commit(to State, sig Signal) *Event {
	from := m.state
	m.state = to
	m.enterStreak = 0
	m.exitStreak = 0
	return &Event{
		Monitor:   m.name,
		From:      from,
		To:        to,
		FromLabel: m.label(from),
		ToLabel:   m.label(to),
		Frame:     sig.Frame,
		Time:      sig.Time,
		Value:     sig.Value,
	}
}

func (m *Monitor) label(s State) string {
	if s == StateActive {
		return m.cfg.ActiveLabel
	}
	return m.cfg.InactiveLabel
}

// CurrentState returns the current state and streaks.
func (m *Monitor) CurrentState() Snapshot {
	return Snapshot{
		State:       m.state,
		Label:       m.label(m.state),
		EnterStreak: m.enterStreak,
		ExitStreak:  m.exitStreak,
	}
}

// Counts returns the number of transitions committed so far.
func (m *Monitor) Counts() EventCounts {
	return m.counts
}

// Name returns the monitor name used in events.
func (m *Monitor) Name() string {
	return m.name
}

// Config returns the monitor configuration with labels filled in.
func (m *Monitor) Config() Config {
	return m.cfg
}

// BoolSignal encodes a boolean measurement as 1 or 0.
func BoolSignal(frame int, b bool) Signal {
	if b {
		return Signal{Frame: frame, Value: 1}
	}
	return Signal{Frame: frame, Value: 0}
}

// DrawerConfig is tuned for summed contour area of a cash drawer ROI.
func DrawerConfig() Config {
	return Config{
		EnterThreshold: 8000,
		ExitThreshold:  8000,
		MinFramesEnter: 5,
		MinFramesExit:  5,
		InactiveLabel:  "CLOSED",
		ActiveLabel:    "OPEN",
	}
}

// PresenceConfig flags a person near the drawer. The signal is a count of
// matching detections.
func PresenceConfig() Config {
	return Config{
		EnterThreshold: 1,
		ExitThreshold:  1,
		MinFramesEnter: 3,
		MinFramesExit:  3,
		InactiveLabel:  "ABSENT",
		ActiveLabel:    "PRESENT",
	}
}

// ZoneConfig flags a person standing inside the restricted zone.
func ZoneConfig() Config {
	return Config{
		EnterThreshold: 1,
		ExitThreshold:  1,
		MinFramesEnter: 3,
		MinFramesExit:  5,
		InactiveLabel:  "CLEAR",
		ActiveLabel:    "OCCUPIED",
	}
}
