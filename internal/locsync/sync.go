package locsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/store"
	"github.com/lokalmart/courierd/internal/worker"
)

// SignalName is the sync signal that triggers a drain of the queue.
const SignalName = "delivery-location-sync"

// wireUpdate is the request body sent to the tracking endpoint: the queued
// record minus its local id.
type wireUpdate struct {
	DeliveryID string    `json:"delivery_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Config holds the sync target.
type Config struct {
	// EndpointURL is the full URL of the backend tracking endpoint,
	// e.g. https://api.lokalmart.app/api/tracking/location.
	EndpointURL string
}

// Syncer drains the pending location-update queue, one record at a time.
type Syncer struct {
	store  *store.LocationStore
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

func NewSyncer(cfg Config, locationStore *store.LocationStore, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:  locationStore,
		client: &http.Client{Timeout: 15 * time.Second},
		cfg:    cfg,
		logger: logger,
	}
}

// Run performs one sync attempt: read everything pending, POST each record
// sequentially, delete on success, keep on failure. A failed read aborts
// the attempt; a failed send never aborts the rest of the batch. Strictly
// sequential sends keep the delete-on-success invariant simple and avoid
// duplicate posts for one id.
func (s *Syncer) Run(ctx context.Context) error {
	updates, err := s.store.ListPending()
	if err != nil {
		s.logger.Error("read pending location updates", "error", err)
		return fmt.Errorf("read pending updates: %w", err)
	}
	if len(updates) == 0 {
		return nil
	}

	sent := 0
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.send(ctx, u); err != nil {
			// Keep the record queued for the next sync trigger.
			s.logger.Error("send location update", "id", u.ID, "error", err)
			continue
		}
		if err := s.store.Delete(u.ID); err != nil {
			s.logger.Error("delete sent location update", "id", u.ID, "error", err)
			continue
		}
		sent++
	}

	s.logger.Info("location sync finished", "sent", sent, "pending", len(updates)-sent)
	return nil
}

// HandleSync adapts Run to a worker event handler, ignoring sync signals
// with other names.
func (s *Syncer) HandleSync(ctx context.Context, ev worker.Event) error {
	if ev.Tag != SignalName {
		return nil
	}
	return s.Run(ctx)
}

func (s *Syncer) send(ctx context.Context, u model.LocationUpdate) error {
	body, err := json.Marshal(wireUpdate{
		DeliveryID: u.DeliveryID,
		Latitude:   u.Latitude,
		Longitude:  u.Longitude,
		Accuracy:   u.Accuracy,
		Heading:    u.Heading,
		Speed:      u.Speed,
		RecordedAt: u.RecordedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tracking endpoint returned %d", resp.StatusCode)
	}
	return nil
}
