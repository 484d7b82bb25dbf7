package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Event is one push notification to connected viewers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// EventHub pushes parameter change notifications to connected viewers over
// websockets, so an edit made through the HTTP API shows up in every open
// window without polling.
type EventHub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	upgrader    websocket.Upgrader
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The panel and viewer are served from this process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleEvents upgrades the request to a websocket and registers the client.
func (h *EventHub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Events: websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()
	slog.Debug("Events: subscriber connected", "id", sub.id, "total", count)

	go h.writePump(sub)
	go h.readPump(sub)
}

// Broadcast sends the event to every connected subscriber. Subscribers with a
// full send buffer are dropped rather than blocking the caller.
func (h *EventHub) Broadcast(eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		slog.Error("Events: failed to marshal event", "type", eventType, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		select {
		case sub.send <- data:
		default:
			slog.Warn("Events: dropping slow subscriber", "id", id)
			delete(h.subscribers, id)
			close(sub.send)
		}
	}
}

// Subscribers reports the number of connected clients.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		close(sub.send)
	}
}

func (h *EventHub) writePump(sub *subscriber) {
	defer sub.conn.Close()
	for data := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump drains incoming frames so control messages are processed and the
// connection close is noticed.
func (h *EventHub) readPump(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	if _, ok := h.subscribers[sub.id]; ok {
		delete(h.subscribers, sub.id)
		close(sub.send)
	}
	h.mu.Unlock()
	slog.Debug("Events: subscriber disconnected", "id", sub.id)
}
