package status

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/counterwatch/internal/logic"
)

func drawerStatus(state logic.State, label string, enters int) MonitorStatus {
	return MonitorStatus{
		Name:      "drawer",
		State:     state,
		Label:     label,
		Counts:    logic.EventCounts{Enter: enters},
		LastValue: 8200,
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Source: "0", IntervalMs: 33, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.IntervalMs != 33 {
		t.Errorf("Config.IntervalMs: got %d, want 33", snap.Config.IntervalMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.FramesProcessed != 0 || snap.LastFrame != -1 {
		t.Errorf("expected no frames yet, got %d (last %d)", snap.FramesProcessed, snap.LastFrame)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(7, []MonitorStatus{drawerStatus(logic.StateActive, "OPEN", 1)})

	snap := tr.Snapshot()
	if snap.LastFrame != 7 || snap.FramesProcessed != 1 {
		t.Errorf("frames: got last=%d processed=%d", snap.LastFrame, snap.FramesProcessed)
	}
	m, ok := snap.Monitor("drawer")
	if !ok {
		t.Fatal("expected drawer monitor")
	}
	if m.State != logic.StateActive || m.Label != "OPEN" {
		t.Errorf("drawer: got %s/%s", m.State, m.Label)
	}
	if m.Counts.Enter != 1 {
		t.Errorf("Counts.Enter: got %d, want 1", m.Counts.Enter)
	}
	if _, ok := snap.Monitor("zone"); ok {
		t.Error("unexpected zone monitor")
	}
}

func TestFromMonitor(t *testing.T) {
	m, err := logic.NewMonitor("presence", logic.PresenceConfig())
	if err != nil {
		t.Fatal(err)
	}
	m.Observe(logic.BoolSignal(0, true))

	s := FromMonitor(m)
	if s.Name != "presence" || s.State != logic.StateInactive || s.Label != "ABSENT" {
		t.Errorf("got %+v", s)
	}
	if s.EnterStreak != 1 || s.ExitStreak != 0 {
		t.Errorf("streaks: got %d/%d", s.EnterStreak, s.ExitStreak)
	}
}

func TestCounters(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.AddReadError()
	tr.AddReadError()
	tr.AddProbeError()
	tr.SetAlarm(true)

	snap := tr.Snapshot()
	if snap.ReadErrors != 2 || snap.ProbeErrors != 1 {
		t.Errorf("errors: got read=%d probe=%d", snap.ReadErrors, snap.ProbeErrors)
	}
	if !snap.AlarmOn {
		t.Error("expected alarm on")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetHost(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Host != nil {
		t.Error("expected nil Host initially")
	}

	tr.SetHost(&HostInfo{Hostname: "till-01", CPUPercent: 12.5})

	snap := tr.Snapshot()
	if snap.Host == nil || snap.Host.Hostname != "till-01" {
		t.Fatalf("Host: got %+v", snap.Host)
	}
}

func TestCollectHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := CollectHost(ctx)
	if err != nil {
		t.Skipf("host stats unavailable here: %v", err)
	}
	if info.MemUsedPct < 0 || info.MemUsedPct > 100 {
		t.Errorf("MemUsedPct out of range: %v", info.MemUsedPct)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	monitors := []MonitorStatus{drawerStatus(logic.StateActive, "OPEN", 1)}
	tr.Update(0, monitors)

	snap1 := tr.Snapshot()

	// Neither the caller's slice nor a later update may leak into snap1.
	monitors[0].Label = "MUTATED"
	tr.Update(1, []MonitorStatus{drawerStatus(logic.StateInactive, "CLOSED", 1)})

	if snap1.Monitors[0].Label != "OPEN" {
		t.Errorf("snapshot should be a copy; got label %q", snap1.Monitors[0].Label)
	}
	snap2 := tr.Snapshot()
	snap2.Monitors[0].Label = "X"
	if tr.Snapshot().Monitors[0].Label != "CLOSED" {
		t.Error("modifying a snapshot must not change the tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Monitors: []MonitorStatus{
			drawerStatus(logic.StateActive, "OPEN", 2),
			{Name: "zone", State: logic.StateInactive, Label: "CLEAR", LastError: "detect: boom"},
		},
		FramesProcessed: 900,
		LastFrame:       899,
		ReadErrors:      1,
		AlarmOn:         true,
		StartTime:       start,
		Now:             start.Add(15 * time.Minute),
		MQTTConnected:   true,
		Config: Config{
			Source:   "0",
			Checks:   []string{"drawer", "zone"},
			Broker:   "tcp://broker:1883",
			HTTPAddr: ":8080",
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if len(s.Monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(s.Monitors))
	}
	if s.Monitors[0].State != "ACTIVE" || s.Monitors[0].Label != "OPEN" || s.Monitors[0].Counts.Enter != 2 {
		t.Errorf("drawer: got %+v", s.Monitors[0])
	}
	if s.Monitors[1].LastError != "detect: boom" {
		t.Errorf("zone error: got %q", s.Monitors[1].LastError)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %s", s.StartTime)
	}
	if !s.Alarm || !s.MQTT.Connected || s.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("flags: alarm=%v mqtt=%+v", s.Alarm, s.MQTT)
	}
	if s.FramesProcessed != 900 || s.ReadErrors != 1 {
		t.Errorf("counters: got %d/%d", s.FramesProcessed, s.ReadErrors)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web JSON should not carry event or reason")
	}
	if s.Host != nil {
		t.Error("expected host omitted when nil")
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("expected indented JSON for the web endpoint")
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	snap := Snapshot{Monitors: []MonitorStatus{{Name: "drawer"}}}
	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Monitors[0].State != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for empty state, got %q", parsed.Status.Monitors[0].State)
	}
	if parsed.Status.Config.Checks == nil {
		t.Error("checks should encode as an empty list")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(time.Minute)}

	data := FormatStatusEvent(snap, "STARTUP", "")
	if strings.Contains(string(data), "\n") {
		t.Error("MQTT status payload should be compact")
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["status"]["event"] != "STARTUP" {
		t.Errorf("event: got %v", parsed["status"]["event"])
	}
	if _, exists := parsed["status"]["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{
		Host: &HostInfo{Hostname: "till-01", Load1: 0.5},
	}
	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.Host == nil || parsed.Status.Host.Hostname != "till-01" {
		t.Errorf("host: got %+v", parsed.Status.Host)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(i, []MonitorStatus{drawerStatus(logic.StateActive, "OPEN", i)})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetHost(&HostInfo{Hostname: "h"})
			tr.AddReadError()
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
