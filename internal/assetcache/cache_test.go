package assetcache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lokalmart/courierd/internal/database"
	"github.com/lokalmart/courierd/internal/store"
)

func setupAssetStore(t *testing.T) *store.AssetStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewAssetStore(db)
}

// testOrigin serves a fixed asset set and counts hits.
func testOrigin(t *testing.T, hits *atomic.Int64, fail map[string]bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("asset:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T, origin string, assets []string) *Manager {
	t.Helper()
	return NewManager(Config{
		OriginURL: origin,
		CacheName: "static-v1",
		Assets:    assets,
	}, setupAssetStore(t), slog.Default())
}

func TestInstallPrePopulates(t *testing.T) {
	var hits atomic.Int64
	origin := testOrigin(t, &hits, nil)
	m := newTestManager(t, origin.URL, []string{"/", "/app.js"})

	if err := m.Install(context.Background()); err != nil {
		t.Fatalf("install: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("origin hits = %d, want 2", hits.Load())
	}

	res, err := m.Fetch(context.Background(), "/app.js")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !res.Cached {
		t.Error("expected cache hit after install")
	}
	if !bytes.Equal(res.Body, []byte("asset:/app.js")) {
		t.Errorf("body = %q", res.Body)
	}
}

func TestInstallAllOrNothing(t *testing.T) {
	var hits atomic.Int64
	origin := testOrigin(t, &hits, map[string]bool{"/broken.css": true})
	m := newTestManager(t, origin.URL, []string{"/", "/broken.css"})

	if err := m.Install(context.Background()); err == nil {
		t.Fatal("expected install to fail when one asset fails")
	}

	// Nothing landed, not even the asset that fetched fine.
	res, err := m.Fetch(context.Background(), "/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Cached {
		t.Error("no asset should be cached after a failed install")
	}
}

func TestInstallFailureKeepsPreviousCache(t *testing.T) {
	var hits atomic.Int64
	fail := map[string]bool{}
	origin := testOrigin(t, &hits, fail)
	m := newTestManager(t, origin.URL, []string{"/", "/app.js"})

	if err := m.Install(context.Background()); err != nil {
		t.Fatalf("first install: %v", err)
	}

	fail["/app.js"] = true
	if err := m.Install(context.Background()); err == nil {
		t.Fatal("expected second install to fail")
	}

	// The previously installed set still serves.
	res, err := m.Fetch(context.Background(), "/app.js")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !res.Cached {
		t.Error("previous cache version should remain active after failed install")
	}
}

func TestInstallIdempotent(t *testing.T) {
	var hits atomic.Int64
	origin := testOrigin(t, &hits, nil)
	st := setupAssetStore(t)
	m := NewManager(Config{OriginURL: origin.URL, CacheName: "static-v1", Assets: []string{"/", "/app.js"}}, st, slog.Default())

	m.Install(context.Background())
	if err := m.Install(context.Background()); err != nil {
		t.Fatalf("second install: %v", err)
	}

	urls, err := st.ListURLs("static-v1")
	if err != nil {
		t.Fatalf("list urls: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("urls = %d, want 2 (exactly one copy per asset)", len(urls))
	}
}

func TestActivateRetiresOldVersions(t *testing.T) {
	var hits atomic.Int64
	origin := testOrigin(t, &hits, nil)
	st := setupAssetStore(t)

	v1 := NewManager(Config{OriginURL: origin.URL, CacheName: "static-v1", Assets: []string{"/"}}, st, slog.Default())
	v2 := NewManager(Config{OriginURL: origin.URL, CacheName: "static-v2", Assets: []string{"/"}}, st, slog.Default())

	if err := v1.Install(context.Background()); err != nil {
		t.Fatalf("install v1: %v", err)
	}
	if err := v2.Install(context.Background()); err != nil {
		t.Fatalf("install v2: %v", err)
	}
	if err := v2.Activate(context.Background()); err != nil {
		t.Fatalf("activate v2: %v", err)
	}

	oldURLs, err := st.ListURLs("static-v1")
	if err != nil {
		t.Fatalf("list v1: %v", err)
	}
	if len(oldURLs) != 0 {
		t.Errorf("v1 assets = %d after activation, want 0", len(oldURLs))
	}

	res, err := v2.Fetch(context.Background(), "/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !res.Cached {
		t.Error("active version should still serve from cache")
	}
}

func TestFetchCacheFirstNeverTouchesNetwork(t *testing.T) {
	var hits atomic.Int64
	origin := testOrigin(t, &hits, nil)
	m := newTestManager(t, origin.URL, []string{"/logo.png"})

	m.Install(context.Background())
	installHits := hits.Load()

	res, err := m.Fetch(context.Background(), "/logo.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !res.Cached {
		t.Fatal("expected cache hit")
	}
	// Byte-for-byte what the origin served at install time.
	if !bytes.Equal(res.Body, []byte("asset:/logo.png")) {
		t.Errorf("body = %q", res.Body)
	}
	if hits.Load() != installHits {
		t.Errorf("origin hits grew from %d to %d on a cache hit", installHits, hits.Load())
	}
}

func TestFetchMissGoesToOriginUncached(t *testing.T) {
	var hits atomic.Int64
	origin := testOrigin(t, &hits, nil)
	m := newTestManager(t, origin.URL, []string{"/"})

	m.Install(context.Background())

	res, err := m.Fetch(context.Background(), "/uncached.js")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Cached {
		t.Error("expected miss")
	}

	// The miss response is not stored: a second fetch hits the origin again.
	before := hits.Load()
	m.Fetch(context.Background(), "/uncached.js")
	if hits.Load() != before+1 {
		t.Error("miss responses must not be cached")
	}
}

func TestFetchMissNetworkErrorPropagates(t *testing.T) {
	m := newTestManager(t, "http://127.0.0.1:1", []string{"/"})

	if _, err := m.Fetch(context.Background(), "/anything"); err == nil {
		t.Fatal("expected network error to propagate")
	}
}
