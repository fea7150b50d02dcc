package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/counterwatch/internal/logic"
)

func drawerOpen(at time.Time) logic.Event {
	return logic.Event{
		Monitor:   "drawer",
		From:      logic.StateInactive,
		To:        logic.StateActive,
		FromLabel: "CLOSED",
		ToLabel:   "OPEN",
		Frame:     42,
		Time:      at,
		Value:     9120.5,
	}
}

func TestFormatPayload(t *testing.T) {
	event := drawerOpen(time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC))

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Alert.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Alert.Timestamp)
	}
	if parsed.Alert.Event != "DRAWER_OPEN" {
		t.Errorf("unexpected event: %s", parsed.Alert.Event)
	}
	if parsed.Alert.From != "CLOSED" || parsed.Alert.To != "OPEN" {
		t.Errorf("unexpected labels: %s -> %s", parsed.Alert.From, parsed.Alert.To)
	}
	if parsed.Alert.Frame != 42 {
		t.Errorf("unexpected frame: %d", parsed.Alert.Frame)
	}
	if parsed.Alert.Value != 9120.5 {
		t.Errorf("unexpected value: %v", parsed.Alert.Value)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := drawerOpen(time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC))

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"alert":{"timestamp":"2026-02-02T22:18:12Z","monitor":"drawer","event":"DRAWER_OPEN","from":"CLOSED","to":"OPEN","frame":42,"value":9120.5}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestEventName(t *testing.T) {
	tests := []struct {
		monitor string
		to      string
		want    string
	}{
		{"drawer", "OPEN", "DRAWER_OPEN"},
		{"drawer", "CLOSED", "DRAWER_CLOSED"},
		{"zone", "OCCUPIED", "ZONE_OCCUPIED"},
		{"presence", "absent", "PRESENCE_ABSENT"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := EventName(logic.Event{Monitor: tt.monitor, ToLabel: tt.to})
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	event := drawerOpen(time.Date(2026, 2, 3, 4, 0, 0, 0, loc))

	payload, _ := FormatPayload(event)
	var parsed Payload
	json.Unmarshal(payload, &parsed)

	if parsed.Alert.Timestamp != "2026-02-02T22:30:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Alert.Timestamp)
	}
}

func TestTopic(t *testing.T) {
	expected := "retail/counterwatch/events"
	if Topic != expected {
		t.Errorf("unexpected topic: got %s, want %s", Topic, expected)
	}
}

func TestTopicSystem(t *testing.T) {
	expected := "retail/counterwatch/system"
	if TopicSystem != expected {
		t.Errorf("unexpected system topic: got %s, want %s", TopicSystem, expected)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadAllReasons(t *testing.T) {
	for _, reason := range []string{"SIGTERM", "SIGINT", "EOF", "READ_FAILURE"} {
		t.Run(reason, func(t *testing.T) {
			payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: reason})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var parsed SystemPayload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.System.Reason != reason {
				t.Errorf("got %s, want %s", parsed.System.Reason, reason)
			}
		})
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"system":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFormatSystemPayloadReconnected(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload := WillPayload(time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC))

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(drawerOpen(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Monitor != "drawer" {
		t.Errorf("unexpected monitor: %s", f.Events[0].Monitor)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(drawerOpen(time.Now())); err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}
	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"})

	if len(f.SystemEvents) != 2 || len(f.SystemPayloads) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(f.SystemEvents))
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flag not recorded")
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	if err := f.PublishSystem(SystemEvent{Event: "SHUTDOWN"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Error("expected nothing recorded on error")
	}
}

func TestFakePublisherNames(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Event: EventStartup})
	f.Publish(drawerOpen(time.Now()))
	f.PublishSystem(SystemEvent{Event: EventHeartbeat})

	names := f.EventNames()
	if len(names) != 1 || names[0] != "DRAWER_OPEN" {
		t.Errorf("EventNames: got %v", names)
	}
	life := f.Lifecycle()
	if len(life) != 2 || life[0] != EventStartup || life[1] != EventHeartbeat {
		t.Errorf("Lifecycle: got %v", life)
	}
}

func TestFakePublisherPreservesEventOrder(t *testing.T) {
	f := NewFakePublisher()
	now := time.Now()
	for i, label := range []string{"OPEN", "CLOSED", "OPEN"} {
		ev := drawerOpen(now)
		ev.ToLabel = label
		ev.Frame = i
		f.Publish(ev)
	}
	for i, ev := range f.Events {
		if ev.Frame != i {
			t.Errorf("event %d: got frame %d", i, ev.Frame)
		}
	}
}
