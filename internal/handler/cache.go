package handler

import (
	"log/slog"
	"net/http"

	"github.com/lokalmart/courierd/internal/assetcache"
	"github.com/lokalmart/courierd/internal/worker"
)

// CacheHandler serves static assets cache-first and exposes a manual
// install trigger.
type CacheHandler struct {
	cache  *assetcache.Manager
	w      *worker.Worker
	logger *slog.Logger
}

func NewCacheHandler(cache *assetcache.Manager, w *worker.Worker, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, w: w, logger: logger}
}

// Asset handles GET /assets/{path...}. A cache hit returns the stored
// bytes; a miss is fetched live from the origin and returned un-cached. A
// failed network fetch surfaces as 502, mirroring a rejected fetch.
func (h *CacheHandler) Asset(w http.ResponseWriter, r *http.Request) {
	path := "/" + r.PathValue("path")

	result, err := h.cache.Fetch(r.Context(), path)
	if err != nil {
		h.logger.Error("asset fetch", "path", path, "error", err)
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return
	}

	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	if result.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Write(result.Body)
}

// Install handles POST /api/cache/install. The install event runs
// synchronously so the caller learns whether the new cache version
// activated.
func (h *CacheHandler) Install(w http.ResponseWriter, r *http.Request) {
	if err := h.w.Dispatch(r.Context(), worker.Event{Kind: worker.KindInstall}); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "install failed, previous cache remains active"})
		return
	}
	if err := h.w.Dispatch(r.Context(), worker.Event{Kind: worker.KindActivate}); err != nil {
		h.logger.Error("stale cache cleanup", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "installed"})
}
