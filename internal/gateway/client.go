package gateway

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one WebSocket subscriber.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// sendInitialState queues the welcome acknowledgment and the latest signal
// for every pair so a fresh client has state before the next pass fires.
func (c *Client) sendInitialState() {
	welcome, _ := json.Marshal(map[string]interface{}{
		"event": "welcome",
		"data":  map[string]string{"status": "connected"},
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	select {
	case c.send <- welcome:
	default:
	}

	for _, payload := range c.hub.LatestAll() {
		envelope, _ := json.Marshal(map[string]interface{}{
			"event": "signal",
			"data":  json.RawMessage(payload),
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		})
		select {
		case c.send <- envelope:
		default:
			return
		}
	}
}

// readPump drains inbound frames. The protocol is push-only, so inbound
// payloads are discarded; the pump exists to surface pongs and closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] ws read: %v", err)
			}
			return
		}
	}
}

// writePump flushes the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
