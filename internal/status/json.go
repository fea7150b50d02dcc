package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string        `json:"event,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	Monitors        []MonitorJSON `json:"monitors"`
	Alarm           bool          `json:"alarm"`
	FramesProcessed int           `json:"frames_processed"`
	LastFrame       int           `json:"last_frame"`
	ReadErrors      int           `json:"read_errors"`
	ProbeErrors     int           `json:"probe_errors"`
	UptimeSeconds   int64         `json:"uptime_seconds"`
	StartTime       string        `json:"start_time"`
	Timestamp       string        `json:"timestamp"`
	MQTT            MQTTStatus    `json:"mqtt"`
	Host            *HostJSON     `json:"host,omitempty"`
	Config          ConfigJSON    `json:"config"`
}

// MonitorJSON is the JSON representation of one monitor.
type MonitorJSON struct {
	Name        string     `json:"name"`
	State       string     `json:"state"`
	Label       string     `json:"label"`
	EnterStreak int        `json:"enter_streak"`
	ExitStreak  int        `json:"exit_streak"`
	LastValue   float64    `json:"last_value"`
	LastError   string     `json:"last_error,omitempty"`
	Counts      CountsJSON `json:"event_counts"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Enter int `json:"enter"`
	Exit  int `json:"exit"`
}

// HostJSON is the JSON representation of host statistics.
type HostJSON struct {
	Hostname      string  `json:"hostname"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedPct    float64 `json:"mem_used_percent"`
	Load1         float64 `json:"load1"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Source      string   `json:"source"`
	Checks      []string `json:"checks"`
	IntervalMs  int64    `json:"interval_ms"`
	HeartbeatMs int64    `json:"heartbeat_ms"`
	ReadPolicy  string   `json:"on_read_failure"`
	Broker      string   `json:"broker"`
	HTTPAddr    string   `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	monitors := make([]MonitorJSON, 0, len(snap.Monitors))
	for _, m := range snap.Monitors {
		state := string(m.State)
		if state == "" {
			state = "UNKNOWN"
		}
		monitors = append(monitors, MonitorJSON{
			Name:        m.Name,
			State:       state,
			Label:       m.Label,
			EnterStreak: m.EnterStreak,
			ExitStreak:  m.ExitStreak,
			LastValue:   m.LastValue,
			LastError:   m.LastError,
			Counts:      CountsJSON{Enter: m.Counts.Enter, Exit: m.Counts.Exit},
		})
	}

	checks := snap.Config.Checks
	if checks == nil {
		checks = []string{}
	}

	return StatusInner{
		Monitors:        monitors,
		Alarm:           snap.AlarmOn,
		FramesProcessed: snap.FramesProcessed,
		LastFrame:       snap.LastFrame,
		ReadErrors:      snap.ReadErrors,
		ProbeErrors:     snap.ProbeErrors,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Source:      snap.Config.Source,
			Checks:      checks,
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			ReadPolicy:  snap.Config.ReadPolicy,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func buildHost(snap Snapshot, inner *StatusInner) {
	if snap.Host != nil {
		inner.Host = &HostJSON{
			Hostname:      snap.Host.Hostname,
			CPUPercent:    snap.Host.CPUPercent,
			MemUsedPct:    snap.Host.MemUsedPct,
			Load1:         snap.Host.Load1,
			UptimeSeconds: snap.Host.UptimeSeconds,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildHost(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildHost(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
