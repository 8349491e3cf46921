package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/lokalmart/courierd/internal/locsync"
	"github.com/lokalmart/courierd/internal/worker"
)

// State represents the gateway connection state.
type State string

const (
	StateDisabled     State = "disabled"
	StateStopped      State = "stopped"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds the push transport configuration.
type Config struct {
	// GatewayURL is the marketplace push gateway, e.g.
	// wss://push.lokalmart.app/agents.
	GatewayURL string

	// AccessToken is sent as a bearer token when dialing.
	AccessToken string
}

// Status holds the current transport status.
type Status struct {
	State       State     `json:"state"`
	Error       string    `json:"error,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
}

// Manager maintains the WebSocket connection to the push gateway. Every
// received text frame is dispatched as one push event; reconnecting also
// fires the location sync signal, since regaining the gateway is the
// moment queued updates can drain.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status
	w      *worker.Worker
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, w *worker.Worker, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, w: w, logger: logger}
	if cfg.GatewayURL == "" {
		m.status = Status{State: StateDisabled}
	} else {
		m.status = Status{State: StateStopped}
	}
	return m
}

// Status returns the current transport status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Start launches the connection loop. No-op if already running or if no
// gateway is configured.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil || m.cfg.GatewayURL == "" {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.setState(Status{State: StateConnecting})

	go m.run(ctx)
}

// Stop closes the connection and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

func (m *Manager) setState(s Status) {
	m.status = s
}

func (m *Manager) run(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		close(m.done)
		m.cancel = nil
		m.done = nil
		m.setState(Status{State: StateStopped})
		m.mu.Unlock()
	}()

	backoff := time.Second
	const maxBackoff = 60 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := m.runOnce(ctx, &backoff)
		if ctx.Err() != nil {
			return
		}

		m.mu.Lock()
		status := Status{State: StateReconnecting}
		if err != nil {
			status.Error = err.Error()
		}
		m.setState(status)
		m.mu.Unlock()

		m.logger.Warn("gateway connection lost, retrying", "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// runOnce dials the gateway and reads frames until the connection drops.
func (m *Manager) runOnce(ctx context.Context, backoff *time.Duration) error {
	opts := &ws.DialOptions{}
	if m.cfg.AccessToken != "" {
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + m.cfg.AccessToken}}
	}

	conn, _, err := ws.Dial(ctx, m.cfg.GatewayURL, opts)
	if err != nil {
		return err
	}
	defer conn.Close(ws.StatusNormalClosure, "shutting down")

	m.mu.Lock()
	m.setState(Status{State: StateConnected, ConnectedAt: time.Now()})
	m.mu.Unlock()
	m.logger.Info("connected to push gateway", "url", m.cfg.GatewayURL)
	*backoff = time.Second

	// Connectivity is back: give the queued location updates a chance.
	m.w.DispatchAsync(ctx, worker.Event{Kind: worker.KindSync, Tag: locsync.SignalName})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		// Pushes may overlap; ordering across events is not guaranteed.
		m.w.DispatchAsync(ctx, worker.Event{Kind: worker.KindPush, Payload: data})
	}
}
