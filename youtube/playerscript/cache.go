// Package playerscript keeps the URL of the platform's player script for a
// bounded time so that loads do not rediscover it on every request.
package playerscript

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/internal/metrics"
)

// TTLMillis is how long a snapshot stays fresh after it was obtained.
const TTLMillis int64 = 600_000

// Snapshot is an immutable record of a resolved script URL.
type Snapshot struct {
	URL string
	// ObtainedAt is the Unix time in milliseconds when URL was confirmed.
	ObtainedAt int64
}

// FreshAt reports whether s may still be served at nowMillis.
func (s Snapshot) FreshAt(nowMillis int64) bool {
	return s.URL != "" && nowMillis-s.ObtainedAt < TTLMillis
}

// SharedStore mirrors the slot across processes.
type SharedStore interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, s Snapshot) error
}

// Cache is a single-slot, lock-free holder of the latest Snapshot.
// Concurrent writers race and the last write wins.
type Cache struct {
	slot   atomic.Pointer[Snapshot]
	shared SharedStore
	log    *logger.ComponentLogger
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{log: logger.WithComponent(logger.ComponentScript)}
}

// WithSharedStore mirrors writes to s and consults it when the local slot is stale.
func (c *Cache) WithSharedStore(s SharedStore) *Cache {
	c.shared = s
	return c
}

// Current returns the slot content regardless of freshness.
func (c *Cache) Current() (Snapshot, bool) {
	if s := c.slot.Load(); s != nil {
		return *s, true
	}
	return Snapshot{}, false
}

// ReadIfFresh returns the local snapshot if it is fresh at nowMillis.
func (c *Cache) ReadIfFresh(nowMillis int64) (Snapshot, bool) {
	s := c.slot.Load()
	if s == nil || !s.FreshAt(nowMillis) {
		return Snapshot{}, false
	}
	return *s, true
}

// Lookup is ReadIfFresh falling back to the shared store. A fresh shared
// snapshot is adopted locally; one obtained after nowMillis, as written by a
// host whose clock runs ahead, is treated as obtained at nowMillis.
func (c *Cache) Lookup(ctx context.Context, nowMillis int64) (Snapshot, bool) {
	if s, ok := c.ReadIfFresh(nowMillis); ok {
		metrics.RecordScriptCache("hit")
		return s, true
	}
	if c.shared != nil {
		s, ok, err := c.shared.Load(ctx)
		if err != nil {
			c.log.Warn("Shared script slot unavailable", map[string]any{"error": err.Error()})
		} else if ok {
			if s.ObtainedAt > nowMillis {
				c.log.Debug("Clamping shared snapshot from the future", map[string]any{
					"obtained_at": s.ObtainedAt,
					"now":         nowMillis,
				})
				s.ObtainedAt = nowMillis
			}
			if s.FreshAt(nowMillis) {
				c.replace(s)
				metrics.RecordScriptCache("shared_hit")
				return s, true
			}
		}
	}
	metrics.RecordScriptCache("miss")
	return Snapshot{}, false
}

// Store replaces the slot with s and mirrors it to the shared store.
// Snapshots without a URL are ignored.
func (c *Cache) Store(ctx context.Context, s Snapshot) {
	if s.URL == "" {
		return
	}
	c.replace(s)
	if c.shared == nil {
		return
	}
	if err := c.shared.Save(ctx, s); err != nil {
		c.log.Warn("Failed to mirror script URL", map[string]any{"error": err.Error()})
	}
}

// Refresh discovers the script URL through fetch and stores it unconditionally.
func (c *Cache) Refresh(ctx context.Context, fetch PageFetcher, nowMillis int64) (Snapshot, error) {
	start := time.Now()
	url, err := Discover(ctx, fetch)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{URL: url, ObtainedAt: nowMillis}
	c.Store(ctx, s)
	metrics.RecordScriptCache("refresh")
	c.log.Debug("Player script URL refreshed", map[string]any{
		"url":         url,
		"duration_ms": logger.Since(start),
	})
	return s, nil
}

func (c *Cache) replace(s Snapshot) {
	c.slot.Store(&s)
}
