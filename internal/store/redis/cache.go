// Package redis provides a Redis-backed response cache for history
// sources, so repeated fallback loads for the same window skip the
// exchange round-trip.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"tradevision/internal/model"
)

// DefaultTTL bounds how long a cached window is served before the
// wrapped source is consulted again.
const DefaultTTL = 60 * time.Second

// Cache decorates a HistorySource with a Redis response cache.
// Cache failures degrade to pass-through: the wrapped source still
// answers, reads and writes are merely best-effort.
type Cache struct {
	rdb    *goredis.Client
	source model.HistorySource
	ttl    time.Duration
	log    *slog.Logger
}

// NewCache wraps source with a response cache. A non-positive ttl uses
// DefaultTTL.
func NewCache(rdb *goredis.Client, source model.HistorySource, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{rdb: rdb, source: source, ttl: ttl, log: log}
}

func (c *Cache) Name() string { return c.source.Name() + "+cache" }

func cacheKey(q model.HistoryQuery) string {
	return fmt.Sprintf("history:%s:%s:%d:%d:%d",
		strings.ToLower(q.Symbol), q.Interval, q.Limit, q.StartTime, q.EndTime)
}

// History serves the window from cache when possible, otherwise delegates
// and caches the result.
func (c *Cache) History(ctx context.Context, q model.HistoryQuery) ([]model.RawCandle, error) {
	key := cacheKey(q)

	if data, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var raw []model.RawCandle
		if json.Unmarshal([]byte(data), &raw) == nil {
			c.log.Debug("history cache hit", "key", key, "candles", len(raw))
			return raw, nil
		}
		// Corrupt entry: fall through and overwrite.
	} else if err != goredis.Nil {
		c.log.Warn("history cache read failed", "key", key, "err", err)
	}

	raw, err := c.source.History(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(raw); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("history cache write failed", "key", key, "err", err)
		}
	}
	return raw, nil
}
