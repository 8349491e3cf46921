package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Kind names one class of worker event.
type Kind string

const (
	KindInstall           Kind = "install"
	KindActivate          Kind = "activate"
	KindPush              Kind = "push"
	KindNotificationClick Kind = "notificationclick"
	KindSync              Kind = "sync"
)

// Event is one unit of work delivered to the worker.
type Event struct {
	Kind Kind

	// Payload carries the raw push message for KindPush events.
	Payload []byte

	// Tag names the sync signal for KindSync events.
	Tag string

	// Action and Data describe the clicked notification for
	// KindNotificationClick events.
	Action string
	Data   map[string]string
}

// Handler processes one event. The worker holds the event open until the
// handler returns, so handlers should respect ctx cancellation.
type Handler func(ctx context.Context, ev Event) error

// Worker routes events to registered handlers. The handler table is built
// once at process start; Register is not safe to call after Dispatch.
type Worker struct {
	handlers map[Kind][]Handler
	logger   *slog.Logger

	inflight sync.WaitGroup
}

func New(logger *slog.Logger) *Worker {
	return &Worker{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Register adds a handler for one event kind.
func (w *Worker) Register(kind Kind, h Handler) {
	w.handlers[kind] = append(w.handlers[kind], h)
}

// Dispatch runs every handler registered for the event's kind, in
// registration order, and blocks until they finish. Handler errors are
// logged and returned but never abort later handlers; events of different
// kinds may be dispatched concurrently from separate goroutines.
func (w *Worker) Dispatch(ctx context.Context, ev Event) error {
	handlers, ok := w.handlers[ev.Kind]
	if !ok || len(handlers) == 0 {
		w.logger.Debug("no handler registered", "kind", ev.Kind)
		return nil
	}

	w.inflight.Add(1)
	defer w.inflight.Done()

	var firstErr error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			w.logger.Error("event handler failed", "kind", ev.Kind, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s handler: %w", ev.Kind, err)
			}
		}
	}
	return firstErr
}

// DispatchAsync runs Dispatch on its own goroutine. Overlapping delivery
// matches the platform model: ordering across distinct events is not
// guaranteed.
func (w *Worker) DispatchAsync(ctx context.Context, ev Event) {
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		w.Dispatch(ctx, ev)
	}()
}

// Wait blocks until every in-flight event has been handled. Called during
// shutdown so the process does not exit mid-handler.
func (w *Worker) Wait() {
	w.inflight.Wait()
}
