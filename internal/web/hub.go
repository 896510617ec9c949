package web

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 16
)

// Client is one WebSocket play connection
type Client struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *PlayHub
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newClient(id string, conn *websocket.Conn, hub *PlayHub) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
		Hub:  hub,
		done: make(chan struct{}),
	}
}

// PlayHub tracks open play connections and their write pumps
type PlayHub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger

	total *atomic.Int64
}

// NewPlayHub creates a new hub
func NewPlayHub(logger *zap.Logger) *PlayHub {
	return &PlayHub{
		clients: make(map[string]*Client),
		logger:  logger.Named("hub"),
		total:   atomic.NewInt64(0),
	}
}

// Run blocks until ctx ends, then closes every connection
func (h *PlayHub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client and starts its write pump
func (h *PlayHub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.total.Inc()
	playConnections.Inc()
	h.logger.Info("client connected", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))

	go client.writePump()
}

// Unregister removes a client and closes its send channel
func (h *PlayHub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		playConnections.Dec()
		h.logger.Info("client disconnected", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
	}
}

// closeAll drops the connections; each read loop then unregisters its client
func (h *PlayHub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.Close()
	}
}

// GetClientCount returns the number of connected clients
func (h *PlayHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConnections is the number of clients registered since start
func (h *PlayHub) TotalConnections() int64 {
	return h.total.Load()
}

// writePump pumps frames from Send to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.mu.Unlock()
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("write failed", zap.String("client_id", c.ID), zap.Error(err))
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

		case <-ticker.C:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.done)
	_ = c.Conn.Close()
}

// readPump feeds every incoming frame to handle, one at a time, and queues the
// reply. It returns when the connection fails or is closed.
func (c *Client) readPump(handle func(frame []byte) []byte) {
	defer func() {
		c.Hub.Unregister(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Debug("unexpected close", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}

		reply := handle(frame)
		// the write pump is gone once the client is closed; drop the reply
		select {
		case c.Send <- reply:
		case <-c.done:
			return
		}
		// generation may have outlasted the deadline while nothing was read
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
