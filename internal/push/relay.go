package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/notify"
	"github.com/lokalmart/courierd/internal/store"
)

// Sender delivers one payload to one subscription. *Service satisfies it;
// tests swap in a fake.
type Sender interface {
	Send(sub *model.PushSubscription, payload any) error
}

// relayMessage is the envelope delivered to browser subscriptions.
type relayMessage struct {
	Event        string          `json:"event"`
	Tag          string          `json:"tag,omitempty"`
	Notification *notify.Options `json:"notification,omitempty"`
}

// Relay displays notifications by fanning them out to every registered
// browser push subscription. Per-subscription failures are logged and do
// not block the rest; expired subscriptions are dropped from the store.
type Relay struct {
	sender Sender
	subs   *store.PushStore
	logger *slog.Logger
}

func NewRelay(sender Sender, subs *store.PushStore, logger *slog.Logger) *Relay {
	return &Relay{sender: sender, subs: subs, logger: logger}
}

// Show implements notify.Notifier.
func (r *Relay) Show(ctx context.Context, opts notify.Options) error {
	return r.fanOut(relayMessage{Event: "notification", Tag: opts.Tag, Notification: &opts})
}

// Close implements notify.Notifier by telling every subscription to dismiss
// the tagged notification.
func (r *Relay) Close(ctx context.Context, tag string) error {
	return r.fanOut(relayMessage{Event: "close", Tag: tag})
}

func (r *Relay) fanOut(msg relayMessage) error {
	subs, err := r.subs.List()
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	for _, sub := range subs {
		if err := r.sender.Send(&sub, msg); err != nil {
			if errors.Is(err, ErrExpired) {
				if derr := r.subs.DeleteByEndpoint(sub.Endpoint); derr != nil {
					r.logger.Error("drop expired subscription", "endpoint", sub.Endpoint, "error", derr)
				}
				continue
			}
			r.logger.Error("relay push", "endpoint", sub.Endpoint, "error", err)
		}
	}
	return nil
}
