package clients

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client represents a single connected application window.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
	id   string

	mu  sync.RWMutex
	url string
}

// NewClient creates a Client tied to the given hub and connection. The
// initial URL is taken from the connect request and updated by navigate
// reports.
func NewClient(hub *Hub, conn *ws.Conn, initialURL string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   hub.newWindowID(),
		url:  initialURL,
	}
}

// URL returns the window's last reported URL.
func (c *Client) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

func (c *Client) setURL(url string) {
	c.mu.Lock()
	c.url = url
	c.mu.Unlock()
}

// trySend queues a command, dropping it if the window's buffer is full.
func (c *Client) trySend(cmd Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// Window buffer full, drop the command rather than block.
	}
}

// Run registers the window, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump consumes navigate reports from the window. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		c.hub.handleReport(c, data)
	}
}

// writePump drains the send channel and writes commands to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel, the connection is done.
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
