package handler

import (
	"log/slog"
	"net/http"

	"github.com/lokalmart/courierd/internal/locsync"
	"github.com/lokalmart/courierd/internal/worker"
)

// SyncHandler lets UI code trigger a sync pass manually, in addition to
// the transport firing one on reconnect.
type SyncHandler struct {
	w      *worker.Worker
	logger *slog.Logger
}

func NewSyncHandler(w *worker.Worker, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{w: w, logger: logger}
}

// TriggerLocationSync handles POST /api/sync/delivery-location
func (h *SyncHandler) TriggerLocationSync(w http.ResponseWriter, r *http.Request) {
	if err := h.w.Dispatch(r.Context(), worker.Event{Kind: worker.KindSync, Tag: locsync.SignalName}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sync attempt failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
