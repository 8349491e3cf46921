package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lokalmart/courierd/internal/worker"
)

// ClickHandler receives notification-click reports from the browser and
// dispatches them to the worker, which resolves the target window.
type ClickHandler struct {
	w      *worker.Worker
	logger *slog.Logger
}

func NewClickHandler(w *worker.Worker, logger *slog.Logger) *ClickHandler {
	return &ClickHandler{w: w, logger: logger}
}

type clickRequest struct {
	Tag    string            `json:"tag"`
	Action string            `json:"action"`
	Data   map[string]string `json:"data"`
}

// Click handles POST /api/notifications/click
func (h *ClickHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ev := worker.Event{
		Kind:   worker.KindNotificationClick,
		Tag:    req.Tag,
		Action: req.Action,
		Data:   req.Data,
	}
	if err := h.w.Dispatch(r.Context(), ev); err != nil {
		h.logger.Error("dispatch notification click", "tag", req.Tag, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "click handling failed"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
