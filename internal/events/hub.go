package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds every websocket write; a client that stops reading is
// dropped instead of stalling the publisher.
var writeWait = 2 * time.Second

// Hub routes session events to the websocket clients watching that session.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> session id
	logger  *log.Logger
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]string),
		logger:  logger,
	}
}

// Add registers ws as a watcher of sessionID.
func (h *Hub) Add(ws *websocket.Conn, sessionID string) {
	h.mu.Lock()
	h.clients[ws] = sessionID
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish writes e to the clients registered for e.SessionID. Clients that
// fail a write are dropped.
func (h *Hub) Publish(e Event) {
	if e.SessionID == "" {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		h.logger.Printf("[ws] marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws, id := range h.clients {
		if id != e.SessionID {
			continue
		}
		if err := write(ws, b); err != nil {
			h.logger.Printf("[ws] dropping client of session %s: %v", id, err)
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

// send writes one message to a single client. Writes share the hub lock:
// a websocket connection allows one writer at a time.
func (h *Hub) send(ws *websocket.Conn, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return write(ws, b)
}

func write(ws *websocket.Conn, b []byte) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, b)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.clients)}
}
