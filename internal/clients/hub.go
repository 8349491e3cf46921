package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/lokalmart/courierd/internal/notify"
)

// Command is sent to connected application windows.
type Command struct {
	Type string `json:"type"` // "focus" or "open"
	URL  string `json:"url,omitempty"`
}

// report is what a window sends when it navigates.
type report struct {
	Type string `json:"type"` // "navigate"
	URL  string `json:"url"`
}

// Hub is the registry of open application windows. Each window keeps a
// WebSocket open and reports its current URL; the hub can focus one window
// or ask for a new one to be opened.
type Hub struct {
	mu      sync.RWMutex
	windows map[*Client]struct{}
	nextID  atomic.Int64
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		windows: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a window to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.windows[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a window from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.windows[c]; ok {
		delete(h.windows, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// List implements notify.Clients.
func (h *Hub) List(ctx context.Context) []notify.Window {
	h.mu.RLock()
	defer h.mu.RUnlock()

	wins := make([]notify.Window, 0, len(h.windows))
	for c := range h.windows {
		wins = append(wins, notify.Window{ID: c.id, URL: c.URL()})
	}
	return wins
}

// Focus implements notify.Clients by commanding one window to the front.
func (h *Hub) Focus(ctx context.Context, id string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.windows {
		if c.id == id {
			c.trySend(Command{Type: "focus"})
			return nil
		}
	}
	return fmt.Errorf("window %s not connected", id)
}

// Open implements notify.Clients by asking one connected window to open
// the URL. With no window connected there is nothing to command; the click
// is logged and dropped.
func (h *Hub) Open(ctx context.Context, url string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.windows) == 0 {
		h.logger.Warn("no window connected to open url", "url", url)
		return nil
	}
	for c := range h.windows {
		c.trySend(Command{Type: "open", URL: url})
		return nil
	}
	return nil
}

func (h *Hub) newWindowID() string {
	return "w" + strconv.FormatInt(h.nextID.Add(1), 10)
}

func (h *Hub) handleReport(c *Client, data []byte) {
	var r report
	if err := json.Unmarshal(data, &r); err != nil {
		h.logger.Debug("bad window report", "window", c.id, "error", err)
		return
	}
	if r.Type == "navigate" && r.URL != "" {
		c.setURL(r.URL)
	}
}
