// Package ws broadcasts cycle results to connected websocket clients.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TradePulse/internal/domain/models"
	applogger "TradePulse/pkg/logger"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 8
)

// Hub tracks connected clients and fans cycle results out to them.
// Slow clients are dropped rather than allowed to stall the cycle
// goroutine.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	l       *applogger.Logger
}

type client struct {
	conn *websocket.Conn
	send chan *models.CycleResult
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), l: l}
}

// Register adopts an upgraded connection and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan *models.CycleResult, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.l.Info("websocket client connected", applogger.Int("clients", count))

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast queues the result for every connected client. Clients whose
// buffers are full are disconnected.
func (h *Hub) Broadcast(result *models.CycleResult) {
	h.mu.Lock()
	var stale []*client
	for c := range h.clients {
		select {
		case c.send <- result:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range stale {
		close(c.send)
		c.conn.Close()
		h.l.Warn("slow websocket client dropped")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		c.conn.Close()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case result, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(result); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards inbound frames; it exists to notice disconnects.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	if ok {
		close(c.send)
		c.conn.Close()
	}
}
