package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/lokalmart/courierd/internal/database"
	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/store"
	"github.com/lokalmart/courierd/internal/worker"
)

// fakeNotifier records Show and Close calls.
type fakeNotifier struct {
	shown  []Options
	closed []string
	err    error
}

func (f *fakeNotifier) Show(ctx context.Context, opts Options) error {
	if f.err != nil {
		return f.err
	}
	f.shown = append(f.shown, opts)
	return nil
}

func (f *fakeNotifier) Close(ctx context.Context, tag string) error {
	f.closed = append(f.closed, tag)
	return nil
}

func setupNotificationLog(t *testing.T) *store.NotificationStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewNotificationStore(db)
}

func TestHandlePushNoPayload(t *testing.T) {
	fake := &fakeNotifier{}
	d := NewDispatcher(fake, nil, slog.Default())

	err := d.HandlePush(context.Background(), worker.Event{Kind: worker.KindPush})
	if err != nil {
		t.Fatalf("empty payload should be a no-op, got %v", err)
	}
	if len(fake.shown) != 0 {
		t.Errorf("expected no notification, got %d", len(fake.shown))
	}
}

func TestHandlePushMalformedJSON(t *testing.T) {
	fake := &fakeNotifier{}
	d := NewDispatcher(fake, nil, slog.Default())

	err := d.HandlePush(context.Background(), worker.Event{Kind: worker.KindPush, Payload: []byte("{not json")})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if len(fake.shown) != 0 {
		t.Errorf("expected no notification on malformed payload, got %d", len(fake.shown))
	}
}

func TestHandlePushShowsAndLogs(t *testing.T) {
	fake := &fakeNotifier{}
	log := setupNotificationLog(t)
	d := NewDispatcher(fake, log, slog.Default())

	payload := []byte(`{"title":"New delivery","body":"Pick up at stall 3","data":{"type":"delivery_assignment","orderId":"42"}}`)
	if err := d.HandlePush(context.Background(), worker.Event{Kind: worker.KindPush, Payload: payload}); err != nil {
		t.Fatalf("handle push: %v", err)
	}

	if len(fake.shown) != 1 {
		t.Fatalf("shown = %d, want 1", len(fake.shown))
	}
	opts := fake.shown[0]
	if !opts.RequireInteraction {
		t.Error("delivery_assignment should require interaction")
	}
	if opts.Data.OrderID != "42" {
		t.Errorf("data order id = %q, want 42", opts.Data.OrderID)
	}

	recs, err := log.ListRecent(10)
	if err != nil {
		t.Fatalf("list log: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("log len = %d, want 1", len(recs))
	}
	if recs[0].Type != model.NotifTypeDeliveryAssignment {
		t.Errorf("log type = %q, want delivery_assignment", recs[0].Type)
	}
	if recs[0].Tag != opts.Tag {
		t.Errorf("log tag = %q, want %q", recs[0].Tag, opts.Tag)
	}
}

func TestHandlePushIgnoresWireInteractionFlag(t *testing.T) {
	fake := &fakeNotifier{}
	d := NewDispatcher(fake, nil, slog.Default())

	// order_update never requires interaction, whatever the sender claims.
	payload := []byte(`{"title":"x","body":"y","requireInteraction":true,"data":{"type":"order_update"}}`)
	if err := d.HandlePush(context.Background(), worker.Event{Kind: worker.KindPush, Payload: payload}); err != nil {
		t.Fatalf("handle push: %v", err)
	}

	if len(fake.shown) != 1 {
		t.Fatalf("shown = %d, want 1", len(fake.shown))
	}
	if fake.shown[0].RequireInteraction {
		t.Error("the per-type profile, not the payload, decides requireInteraction")
	}
}

func TestHandlePushShowFailure(t *testing.T) {
	fake := &fakeNotifier{err: context.DeadlineExceeded}
	d := NewDispatcher(fake, nil, slog.Default())

	payload := []byte(`{"title":"x","body":"y","data":{"type":"order_update"}}`)
	if err := d.HandlePush(context.Background(), worker.Event{Kind: worker.KindPush, Payload: payload}); err == nil {
		t.Fatal("expected show failure to propagate")
	}
}
