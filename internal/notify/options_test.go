package notify

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/lokalmart/courierd/internal/model"
)

var receivedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func payload(typ string) model.PushPayload {
	return model.PushPayload{
		Title: "Test",
		Body:  "body",
		Data:  model.PushData{Type: typ, OrderID: "42", DeliveryID: "7"},
	}
}

func TestComposeDeliveryAssignment(t *testing.T) {
	opts := Compose(payload(model.NotifTypeDeliveryAssignment), receivedAt)

	if !opts.RequireInteraction {
		t.Error("expected requireInteraction=true")
	}
	if want := []int{300, 200, 300, 200, 300}; !reflect.DeepEqual(opts.Vibrate, want) {
		t.Errorf("vibrate = %v, want %v", opts.Vibrate, want)
	}
	if len(opts.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(opts.Actions))
	}
	if opts.Actions[0].Action != "accept" || opts.Actions[1].Action != "view" {
		t.Errorf("actions = %v, want accept and view", opts.Actions)
	}
}

func TestComposeOrderUpdate(t *testing.T) {
	opts := Compose(payload(model.NotifTypeOrderUpdate), receivedAt)

	if opts.RequireInteraction {
		t.Error("expected requireInteraction=false")
	}
	if want := []int{200, 100, 200}; !reflect.DeepEqual(opts.Vibrate, want) {
		t.Errorf("vibrate = %v, want %v", opts.Vibrate, want)
	}
	if len(opts.Actions) != 1 || opts.Actions[0].Action != "track" {
		t.Errorf("actions = %v, want a single track action", opts.Actions)
	}
}

func TestComposeApproval(t *testing.T) {
	opts := Compose(payload(model.NotifTypeApproval), receivedAt)

	if !opts.RequireInteraction {
		t.Error("expected requireInteraction=true")
	}
	if want := []int{500, 200, 500}; !reflect.DeepEqual(opts.Vibrate, want) {
		t.Errorf("vibrate = %v, want %v", opts.Vibrate, want)
	}
}

func TestComposeUnknownTypeUsesDefaults(t *testing.T) {
	p := payload("promo_blast")
	p.Actions = []model.NotificationAction{{Action: "dismiss", Title: "Dismiss"}}

	opts := Compose(p, receivedAt)

	if opts.RequireInteraction {
		t.Error("expected requireInteraction=false")
	}
	if want := []int{200, 100, 200}; !reflect.DeepEqual(opts.Vibrate, want) {
		t.Errorf("vibrate = %v, want %v", opts.Vibrate, want)
	}
	// Unknown types keep payload-provided actions
	if len(opts.Actions) != 1 || opts.Actions[0].Action != "dismiss" {
		t.Errorf("actions = %v, want payload-provided dismiss", opts.Actions)
	}
}

func TestComposeTag(t *testing.T) {
	opts := Compose(payload(model.NotifTypeOrderUpdate), receivedAt)

	want := fmt.Sprintf("lokalmart-order_update-%d", receivedAt.UnixMilli())
	if opts.Tag != want {
		t.Errorf("tag = %q, want %q", opts.Tag, want)
	}
}

func TestComposeTagAbsentType(t *testing.T) {
	p := payload("")
	opts := Compose(p, receivedAt)

	want := fmt.Sprintf("lokalmart-general-%d", receivedAt.UnixMilli())
	if opts.Tag != want {
		t.Errorf("tag = %q, want %q", opts.Tag, want)
	}
}

func TestComposeIconDefaults(t *testing.T) {
	opts := Compose(payload(model.NotifTypeOrderUpdate), receivedAt)
	if opts.Icon != "/favicon.ico" || opts.Badge != "/favicon.ico" {
		t.Errorf("icon = %q, badge = %q, want /favicon.ico defaults", opts.Icon, opts.Badge)
	}

	p := payload(model.NotifTypeOrderUpdate)
	p.Icon = "/icons/order.png"
	opts = Compose(p, receivedAt)
	if opts.Icon != "/icons/order.png" {
		t.Errorf("icon = %q, want payload override", opts.Icon)
	}
}

func TestComposeNeverSilent(t *testing.T) {
	opts := Compose(payload(model.NotifTypeApproval), receivedAt)
	if opts.Silent {
		t.Error("expected silent=false")
	}
	if !opts.Timestamp.Equal(receivedAt) {
		t.Errorf("timestamp = %v, want %v", opts.Timestamp, receivedAt)
	}
}
