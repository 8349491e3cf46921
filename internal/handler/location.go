package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/store"
)

// LocationHandler exposes the pending location-update queue. UI code
// enqueues here while offline; the sync loop drains the queue.
type LocationHandler struct {
	locations *store.LocationStore
	logger    *slog.Logger
}

func NewLocationHandler(ls *store.LocationStore, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{locations: ls, logger: logger}
}

type locationRequest struct {
	DeliveryID string     `json:"delivery_id"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Accuracy   *float64   `json:"accuracy"`
	Heading    *float64   `json:"heading"`
	Speed      *float64   `json:"speed"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// Enqueue handles POST /api/location-updates
func (h *LocationHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.DeliveryID = strings.TrimSpace(req.DeliveryID)
	if req.DeliveryID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery_id is required"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "latitude and longitude are required"})
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coordinates out of range"})
		return
	}

	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	update, err := h.locations.Enqueue(model.LocationUpdate{
		DeliveryID: req.DeliveryID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Accuracy:   req.Accuracy,
		Heading:    req.Heading,
		Speed:      req.Speed,
		RecordedAt: recordedAt,
	})
	if err != nil {
		h.logger.Error("enqueue location update", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to queue update"})
		return
	}

	writeJSON(w, http.StatusCreated, update)
}

// List handles GET /api/location-updates
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	updates, err := h.locations.ListPending()
	if err != nil {
		h.logger.Error("list location updates", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list updates"})
		return
	}
	if updates == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, updates)
}
