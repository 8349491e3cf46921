package assetcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lokalmart/courierd/internal/model"
	"github.com/lokalmart/courierd/internal/store"
	"github.com/lokalmart/courierd/internal/worker"
)

// CacheName is the active cache version. Bumping it forces a full
// re-population on the next install.
const CacheName = "lokalmart-static-v1"

// DefaultAssets is the fixed, build-time list of static asset paths
// pre-populated at install.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/static/js/main.js",
	"/static/css/main.css",
	"/favicon.ico",
	"/logo192.png",
	"/manifest.json",
	"/offline.html",
}

// Config holds the asset cache configuration.
type Config struct {
	OriginURL string
	CacheName string
	Assets    []string
}

// Result is the response of one cache-first lookup.
type Result struct {
	Body        []byte
	ContentType string
	Cached      bool
}

// Manager pre-populates the named asset cache and answers lookups
// cache-first.
type Manager struct {
	store  *store.AssetStore
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

func NewManager(cfg Config, assetStore *store.AssetStore, logger *slog.Logger) *Manager {
	if cfg.CacheName == "" {
		cfg.CacheName = CacheName
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets
	}
	return &Manager{
		store:  assetStore,
		client: &http.Client{Timeout: 30 * time.Second},
		cfg:    cfg,
		logger: logger,
	}
}

// Install fetches every listed asset from the origin and commits the set in
// one transaction, dropping older cache versions. A single failed fetch
// fails the whole install and leaves the previously installed cache
// untouched.
func (m *Manager) Install(ctx context.Context) error {
	staged := make([]model.CachedAsset, 0, len(m.cfg.Assets))
	for _, path := range m.cfg.Assets {
		body, contentType, err := m.fetchOrigin(ctx, path)
		if err != nil {
			return fmt.Errorf("install %s: %w", path, err)
		}
		staged = append(staged, model.CachedAsset{
			URL:         path,
			ContentType: contentType,
			Body:        body,
		})
	}

	if err := m.store.ReplaceAll(m.cfg.CacheName, staged); err != nil {
		return fmt.Errorf("install cache %s: %w", m.cfg.CacheName, err)
	}

	m.logger.Info("asset cache installed", "cache", m.cfg.CacheName, "assets", len(staged))
	return nil
}

// HandleInstall adapts Install to a worker event handler.
func (m *Manager) HandleInstall(ctx context.Context, _ worker.Event) error {
	return m.Install(ctx)
}

// Activate retires every cache version other than the active one. Runs
// after a successful install so lookups never race an empty cache.
func (m *Manager) Activate(ctx context.Context) error {
	pruned, err := m.store.PruneOthers(m.cfg.CacheName)
	if err != nil {
		return fmt.Errorf("activate cache %s: %w", m.cfg.CacheName, err)
	}
	if pruned > 0 {
		m.logger.Info("retired stale cache versions", "cache", m.cfg.CacheName, "assets_pruned", pruned)
	}
	return nil
}

// HandleActivate adapts Activate to a worker event handler.
func (m *Manager) HandleActivate(ctx context.Context, _ worker.Event) error {
	return m.Activate(ctx)
}

// Fetch answers one request cache-first: an exact URL hit returns the
// stored bytes without touching the network; a miss goes to the origin and
// the response is returned un-cached. Network errors propagate unchanged.
func (m *Manager) Fetch(ctx context.Context, path string) (*Result, error) {
	asset, err := m.store.Get(m.cfg.CacheName, path)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", path, err)
	}
	if asset != nil {
		return &Result{Body: asset.Body, ContentType: asset.ContentType, Cached: true}, nil
	}

	body, contentType, err := m.fetchOrigin(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Result{Body: body, ContentType: contentType, Cached: false}, nil
}

func (m *Manager) fetchOrigin(ctx context.Context, path string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.OriginURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch %s: origin returned %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
