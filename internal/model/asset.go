package model

import "time"

// CachedAsset is one pre-fetched static asset stored under a named cache
// version. The (cache name, URL) pair is unique.
type CachedAsset struct {
	CacheName   string    `json:"cache_name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"-"`
	FetchedAt   time.Time `json:"fetched_at"`
}
