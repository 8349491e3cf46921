package store

import "testing"

func TestCreateSubscription(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub, err := ps.CreateSubscription("https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub1, _ := ps.CreateSubscription("https://push.example.com/sub1", "key1", "auth1", "Device A")
	sub2, err := ps.CreateSubscription("https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}

	// Should be same subscription, updated keys
	if sub2.ID != sub1.ID {
		t.Errorf("expected same ID on upsert, got %d != %d", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want %q", sub2.P256dhKey, "key2")
	}
}

func TestListSubscriptions(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	ps.CreateSubscription("https://push.example.com/1", "k1", "a1", "Device 1")
	ps.CreateSubscription("https://push.example.com/2", "k2", "a2", "Device 2")

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub, _ := ps.CreateSubscription("https://push.example.com/1", "k1", "a1", "D1")

	if err := ps.DeleteSubscription(sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	subs, _ := ps.List()
	if len(subs) != 0 {
		t.Errorf("expected 0 subs after delete, got %d", len(subs))
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	ps.CreateSubscription("https://push.example.com/expired", "k1", "a1", "D1")

	if err := ps.DeleteByEndpoint("https://push.example.com/expired"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, _ := ps.List()
	if len(subs) != 0 {
		t.Errorf("expected 0 subs, got %d", len(subs))
	}
}
