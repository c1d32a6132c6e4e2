// Package gateway is the push/read surface: a WebSocket hub fanning signal
// events out to every connected subscriber, plus the REST handlers served
// off the shared pipeline.
package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and signal fan-out. It implements the
// orchestrator's Broadcaster: delivery is fire-and-forget, so a slow or
// disconnected subscriber never blocks the polling loop.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]json.RawMessage // latest signal payload per pair key

	// OnClientCount is called with the client total after every
	// register/unregister (optional; wired to the ws_clients gauge).
	OnClientCount func(n int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  make(map[string]json.RawMessage),
	}
}

// BroadcastSignal stores the payload as the pair's latest and fans an
// enveloped "signal" event out to all clients. Clients with a full send
// queue drop the message; they resynchronize from the latest map on
// reconnect.
func (h *Hub) BroadcastSignal(key string, payload []byte) {
	envelope, _ := json.Marshal(map[string]interface{}{
		"event": "signal",
		"data":  json.RawMessage(payload),
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	})

	h.mu.Lock()
	h.latest[key] = payload
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			// slow subscriber — drop
		}
	}
	h.mu.Unlock()
}

// HandleConn registers an upgraded WebSocket connection: sends the welcome
// acknowledgment plus the latest signal per pair, then starts the pumps.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.clientCountChanged(count)

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.writePump()
	// Queue the initial state before the read pump can trigger removal:
	// the send channel is only closed from the read pump's exit path.
	client.sendInitialState()
	go client.readPump()
}

// RemoveClient unregisters a client and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)
	h.clientCountChanged(count)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LatestAll returns a snapshot of the latest signal payload per pair.
func (h *Hub) LatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v
	}
	return cp
}

func (h *Hub) clientCountChanged(n int) {
	if h.OnClientCount != nil {
		h.OnClientCount(n)
	}
}
