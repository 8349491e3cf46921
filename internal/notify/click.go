package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/worker"
)

// Window is one open application window known to the registry.
type Window struct {
	ID  string
	URL string
}

// Clients is the registry of open application windows. Focus brings an
// existing window to the front; Open creates a new one at the URL.
type Clients interface {
	List(ctx context.Context) []Window
	Focus(ctx context.Context, id string) error
	Open(ctx context.Context, url string) error
}

// ClickHandler reacts to notification clicks: it closes the notification,
// resolves the in-app target, and focuses or opens a window.
type ClickHandler struct {
	notifier Notifier
	clients  Clients
	logger   *slog.Logger
}

func NewClickHandler(notifier Notifier, clients Clients, logger *slog.Logger) *ClickHandler {
	return &ClickHandler{notifier: notifier, clients: clients, logger: logger}
}

// ResolveTarget maps a clicked action and the notification's data to an
// in-app URL. Explicit actions win over the type fallback; every action
// requires its id field, and anything unresolvable lands on the root.
func ResolveTarget(action string, data model.PushData) string {
	switch {
	case action == "track" && data.OrderID != "":
		return "/order-tracking/" + data.OrderID
	case action == "view_map" && data.DeliveryID != "":
		return "/delivery-tracking/" + data.DeliveryID
	case action == "accept" && data.OrderID != "":
		return "/delivery-partner/orders/" + data.OrderID
	case action == "rate" && data.OrderID != "":
		return "/orders/" + data.OrderID + "/review"
	case action == "view_order" && data.OrderID != "":
		return "/orders/" + data.OrderID
	}

	switch data.Type {
	case model.NotifTypeDeliveryAssignment:
		return "/delivery-partner/dashboard"
	case model.NotifTypeOrderUpdate:
		if data.OrderID != "" {
			return "/order-tracking/" + data.OrderID
		}
	}

	return "/"
}

// HandleClick processes one notificationclick event. Exactly one of
// focus-existing or open-new happens per click.
func (h *ClickHandler) HandleClick(ctx context.Context, ev worker.Event) error {
	if ev.Tag != "" {
		if err := h.notifier.Close(ctx, ev.Tag); err != nil {
			h.logger.Error("close notification", "tag", ev.Tag, "error", err)
		}
	}

	data := model.PushData{
		Type:       ev.Data["type"],
		OrderID:    ev.Data["orderId"],
		DeliveryID: ev.Data["deliveryId"],
	}
	target := ResolveTarget(ev.Action, data)

	for _, win := range h.clients.List(ctx) {
		if win.URL == target {
			if err := h.clients.Focus(ctx, win.ID); err != nil {
				return fmt.Errorf("focus window %s: %w", win.ID, err)
			}
			h.logger.Info("focused window", "url", target)
			return nil
		}
	}

	if err := h.clients.Open(ctx, target); err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	h.logger.Info("opened window", "url", target)
	return nil
}
