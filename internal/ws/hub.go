// Package ws pushes monitor transitions to browsers over WebSocket.
package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/counterwatch/internal/logic"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 32
)

// TransitionMessage is the JSON pushed for every state change.
type TransitionMessage struct {
	Type      string  `json:"type"`
	Monitor   string  `json:"monitor"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Active    bool    `json:"active"`
	Frame     int     `json:"frame"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected browsers. Each client has its own writer goroutine,
// so a slow browser never blocks the frame loop; one whose buffer is full
// is dropped.
type Hub struct {
	clients map[*client]bool
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("ws: client registered (total: %d)", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues message for every client.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("ws: dropping slow client")
		h.unregister(c)
	}
}

// BroadcastEvent sends a transition to every client.
func (h *Hub) BroadcastEvent(ev logic.Event) {
	if h.ClientCount() == 0 {
		return
	}
	data, err := json.Marshal(TransitionMessage{
		Type:      "transition",
		Monitor:   ev.Monitor,
		From:      ev.FromLabel,
		To:        ev.ToLabel,
		Active:    ev.To == logic.StateActive,
		Frame:     ev.Frame,
		Value:     ev.Value,
		Timestamp: ev.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("ws: marshal transition: %v", err)
		return
	}
	h.Broadcast(data)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
