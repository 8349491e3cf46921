package model

import "time"

// Notification type constants carried in the push payload's data.type field.
const (
	NotifTypeDeliveryAssignment = "delivery_assignment"
	NotifTypeOrderUpdate        = "order_update"
	NotifTypeApproval           = "approval"
)

// PushData is the data block of a push payload. It survives past display
// and is consulted again when the notification is clicked.
type PushData struct {
	Type       string `json:"type,omitempty"`
	OrderID    string `json:"orderId,omitempty"`
	DeliveryID string `json:"deliveryId,omitempty"`
}

// PushPayload is the JSON body of one push message from the gateway.
// Presentation flags like requireInteraction are not read from the wire;
// the per-type profile decides them.
type PushPayload struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon,omitempty"`
	Badge   string               `json:"badge,omitempty"`
	Actions []NotificationAction `json:"actions,omitempty"`
	Data    PushData             `json:"data"`
}

// NotificationAction is one button attached to a displayed notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationRecord is a displayed notification as persisted in the
// notification log.
type NotificationRecord struct {
	ID      int64     `json:"id"`
	Tag     string    `json:"tag"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Data    PushData  `json:"data"`
	ShownAt time.Time `json:"shown_at"`
}
