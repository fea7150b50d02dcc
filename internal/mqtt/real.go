package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/counterwatch/internal/logic"
)

// DefaultBufferSize is how many messages are held while disconnected.
const DefaultBufferSize = 256

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client    paho.Client
	topic     string
	mu        sync.Mutex
	outbox    *outbox
	connected bool
	connects  int
	losses    int
	now       func() time.Time
	// formatSystem renders lifecycle payloads.
	formatSystem func(SystemEvent) ([]byte, error)
}

// NewRealPublisher creates a publisher connected to the given broker.
// The initial connection keeps retrying in the background; a timeout is
// returned as an error together with a usable publisher.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := newPublisher(nil, DefaultBufferSize)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload(time.Now())), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return p, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return p, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(client paho.Client, bufferSize int) *RealPublisher {
	return &RealPublisher{
		client:       client,
		topic:        Topic,
		outbox:       newOutbox(bufferSize),
		now:          time.Now,
		formatSystem: FormatSystemPayload,
	}
}

// onConnect replays buffered messages. Reconnections after the first are
// announced on the system topic. Publishes keep going to the outbox until
// it is drained, so replayed state changes reach the broker in order.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connects++
	reconnect := p.connects > 1
	losses := p.losses
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected, replaying %d buffered messages", p.Buffered())
		payload, err := p.formatSystem(SystemEvent{Timestamp: p.now(), Event: EventReconnected})
		if err != nil {
			log.Printf("mqtt: reconnect notice: %v", err)
		} else if err := p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
			log.Printf("mqtt: reconnect notice: %v", err)
		}
	}

	for {
		p.mu.Lock()
		if p.losses != losses {
			// Lost again mid-replay; the next onConnect resumes.
			p.mu.Unlock()
			return
		}
		pending := p.outbox.take()
		if len(pending) == 0 {
			p.connected = true
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		for _, msg := range pending {
			if err := p.send(msg); err != nil {
				log.Printf("mqtt: replay error: %v", err)
			}
		}
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	p.mu.Lock()
	p.connected = false
	p.losses++
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// publish sends msg now, or buffers it while disconnected.
func (p *RealPublisher) publish(msg pendingMsg) error {
	p.mu.Lock()
	if !p.connected {
		p.outbox.add(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(msg)
}

func (p *RealPublisher) send(msg pendingMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a state change to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1: an alert should reach the broker at least once.
	return p.publish(pendingMsg{topic: p.topic, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := p.formatSystem(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	return p.publish(pendingMsg{
		topic:    TopicSystem,
		payload:  payload,
		qos:      1,
		retained: event.Retained,
		stale:    event.Event == EventHeartbeat,
	})
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if n := p.Buffered(); n > 0 {
		log.Printf("mqtt: closing with %d unsent messages", n)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
