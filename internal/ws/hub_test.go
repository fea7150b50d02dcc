package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/counterwatch/internal/logic"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastEvent(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, hub, 1)

	hub.BroadcastEvent(logic.Event{
		Monitor:   "zone",
		From:      logic.StateInactive,
		To:        logic.StateActive,
		FromLabel: "CLEAR",
		ToLabel:   "OCCUPIED",
		Frame:     30,
		Time:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Value:     1,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg TransitionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if msg.Type != "transition" || msg.Monitor != "zone" || msg.To != "OCCUPIED" || !msg.Active {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Frame != 30 || msg.Timestamp != "2026-03-01T09:00:00Z" {
		t.Errorf("frame/timestamp: got %d %s", msg.Frame, msg.Timestamp)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	// Must not block or panic.
	hub.BroadcastEvent(logic.Event{Monitor: "drawer"})
	hub.Broadcast([]byte("x"))
	if hub.ClientCount() != 0 {
		t.Error("expected no clients")
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	c := &client{send: make(chan []byte, 1)}
	hub.clients[c] = true

	hub.Broadcast([]byte("1"))
	hub.Broadcast([]byte("2"))

	if hub.ClientCount() != 0 {
		t.Error("expected full client to be dropped")
	}
	if _, ok := <-c.send; !ok {
		t.Error("expected the buffered message before close")
	}
	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed")
	}
}
