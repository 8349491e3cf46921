package store

import (
	"database/sql"
	"fmt"

	"github.com/lokalmart/courierd/internal/model"
)

// AssetStore holds pre-fetched static assets keyed by (cache name, URL).
type AssetStore struct {
	db *sql.DB
}

func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// Get returns the cached asset for an exact URL match under the given cache
// name, or (nil, nil) on a miss.
func (s *AssetStore) Get(cacheName, url string) (*model.CachedAsset, error) {
	var a model.CachedAsset
	err := s.db.QueryRow(
		`SELECT cache_name, url, content_type, body, fetched_at
		 FROM cached_assets WHERE cache_name = ? AND url = ?`, cacheName, url,
	).Scan(&a.CacheName, &a.URL, &a.ContentType, &a.Body, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached asset: %w", err)
	}
	return &a, nil
}

// ReplaceAll atomically installs a full asset set under cacheName. Either
// all assets land or none do, and a repeat install leaves exactly one copy
// of each asset. Other cache versions are untouched; PruneOthers retires
// them once the new version is active.
func (s *AssetStore) ReplaceAll(cacheName string, assets []model.CachedAsset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin install: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cached_assets WHERE cache_name = ?`, cacheName); err != nil {
		return fmt.Errorf("clear cached assets: %w", err)
	}

	for _, a := range assets {
		if _, err := tx.Exec(
			`INSERT INTO cached_assets (cache_name, url, content_type, body) VALUES (?, ?, ?, ?)`,
			cacheName, a.URL, a.ContentType, a.Body,
		); err != nil {
			return fmt.Errorf("insert cached asset %s: %w", a.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit install: %w", err)
	}
	return nil
}

// PruneOthers deletes every asset row that does not belong to the active
// cache version.
func (s *AssetStore) PruneOthers(activeCacheName string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM cached_assets WHERE cache_name != ?`, activeCacheName)
	if err != nil {
		return 0, fmt.Errorf("prune cached assets: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cached assets: %w", err)
	}
	return n, nil
}

// ListURLs returns the URLs stored under a cache name, for diagnostics.
func (s *AssetStore) ListURLs(cacheName string) ([]string, error) {
	rows, err := s.db.Query(`SELECT url FROM cached_assets WHERE cache_name = ? ORDER BY url`, cacheName)
	if err != nil {
		return nil, fmt.Errorf("list cached asset urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan cached asset url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
