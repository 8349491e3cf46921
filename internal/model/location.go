package model

import "time"

// LocationUpdate is one queued delivery-location report. ID is assigned by
// the local store and is never sent to the backend; a record stays queued
// until the backend acknowledges it with a 2xx.
type LocationUpdate struct {
	ID         int64     `json:"id"`
	DeliveryID string    `json:"delivery_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}
