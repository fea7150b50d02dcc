// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/counterwatch/internal/logic"
)

// Topic is the MQTT topic for monitor state changes.
const Topic = "retail/counterwatch/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "retail/counterwatch/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a monitor state change to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Lifecycle event names published on TopicSystem.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
)

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT", "EOF" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Alert AlertPayload `json:"alert"`
}

// AlertPayload contains the state change details.
type AlertPayload struct {
	Timestamp string  `json:"timestamp"`
	Monitor   string  `json:"monitor"`
	Event     string  `json:"event"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Frame     int     `json:"frame"`
	Value     float64 `json:"value"`
}

// EventName returns the event identifier, e.g. DRAWER_OPEN.
func EventName(event logic.Event) string {
	return strings.ToUpper(event.Monitor) + "_" + strings.ToUpper(event.ToLabel)
}

// FormatPayload creates the JSON payload for a state change.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Alert: AlertPayload{
			Timestamp: event.Time.UTC().Format(time.RFC3339),
			Monitor:   event.Monitor,
			Event:     EventName(event),
			From:      event.FromLabel,
			To:        event.ToLabel,
			Frame:     event.Frame,
			Value:     event.Value,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the last-will message the broker publishes if the
// connection drops without a clean disconnect.
func WillPayload(now time.Time) []byte {
	b, _ := FormatSystemPayload(SystemEvent{
		Timestamp: now,
		Event:     EventShutdown,
		Reason:    "MQTT_DISCONNECT",
	})
	return b
}
