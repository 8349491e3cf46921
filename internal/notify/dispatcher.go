package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/store"
	"github.com/lokalmart/courierd/internal/worker"
)

// Notifier is the display sink for composed notifications.
type Notifier interface {
	Show(ctx context.Context, opts Options) error
	Close(ctx context.Context, tag string) error
}

// Dispatcher turns raw push events into displayed notifications.
type Dispatcher struct {
	notifier Notifier
	log      *store.NotificationStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(notifier Notifier, log *store.NotificationStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		log:      log,
		logger:   logger,
		now:      time.Now,
	}
}

// HandlePush processes one push event. A missing payload is a silent
// no-op; a malformed payload is an error surfaced to the worker's error
// log with no retry. The event stays open until display completes.
func (d *Dispatcher) HandlePush(ctx context.Context, ev worker.Event) error {
	if len(ev.Payload) == 0 {
		d.logger.Debug("push event without payload, ignoring")
		return nil
	}

	var payload model.PushPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode push payload: %w", err)
	}

	opts := Compose(payload, d.now().UTC())

	if err := d.notifier.Show(ctx, opts); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}

	if d.log != nil {
		rec := model.NotificationRecord{
			Tag:   opts.Tag,
			Type:  payload.Data.Type,
			Title: opts.Title,
			Body:  opts.Body,
			Data:  opts.Data,
		}
		if err := d.log.Record(rec); err != nil {
			d.logger.Error("record notification", "tag", opts.Tag, "error", err)
		}
	}

	d.logger.Info("notification shown", "tag", opts.Tag, "type", payload.Data.Type)
	return nil
}
