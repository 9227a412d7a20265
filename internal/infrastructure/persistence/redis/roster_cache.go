package redis

import (
	"context"
	"errors"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
)

// RosterCache decorates a roster.Source with read-through caching. A cache
// fault degrades to the inner source; a roster upload invalidates eagerly so
// the next load sees the new file.
type RosterCache struct {
	inner roster.Source
	cache *Cache
	log   *logger.Logger
}

// NewRosterCache wraps the given source. cache may be nil, in which case the
// decorator is a transparent passthrough; wiring stays the same whether the
// deployment has Redis or not.
func NewRosterCache(inner roster.Source, cache *Cache, log *logger.Logger) *RosterCache {
	return &RosterCache{inner: inner, cache: cache, log: log}
}

// Load returns the cached roster or falls through to the inner source.
func (rc *RosterCache) Load(ctx context.Context, id section.ID) (*roster.Roster, error) {
	if rc.cache == nil {
		return rc.inner.Load(ctx, id)
	}

	key := RosterKey(string(id))
	var cached roster.Roster
	err := rc.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		rc.log.Warn("roster cache read failed, falling through",
			logger.Section(string(id)), logger.Err(err))
	}

	ros, err := rc.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rc.cache.Set(ctx, key, ros, TTLRoster); err != nil {
		rc.log.Warn("roster cache write failed",
			logger.Section(string(id)), logger.Err(err))
	}
	return ros, nil
}

// Save stores the roster through the inner source and drops the cache entry.
func (rc *RosterCache) Save(ctx context.Context, id section.ID, csvData []byte) (string, error) {
	filename, err := rc.inner.Save(ctx, id, csvData)
	if err != nil {
		return "", err
	}

	if rc.cache != nil {
		if err := rc.cache.Delete(ctx, RosterKey(string(id))); err != nil {
			rc.log.Warn("roster cache invalidation failed",
				logger.Section(string(id)), logger.Err(err))
		}
	}
	return filename, nil
}
