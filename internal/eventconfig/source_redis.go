package eventconfig

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "eventconfig:document"

// CachedSource decorates a Source with a shared Redis cache. The document
// is read-mostly: it changes when an organizer edits the year file, while
// certificate reads hit it constantly. Cache failures fall through to the
// inner source so Redis is never on the critical path.
type CachedSource struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps a source with a Redis cache using the given TTL.
func NewCachedSource(inner Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Load returns the cached document when present, otherwise loads from the
// inner source and populates the cache.
func (s *CachedSource) Load(ctx context.Context) (map[string]YearConfig, error) {
	raw, err := s.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var doc map[string]YearConfig
		if err := json.Unmarshal(raw, &doc); err == nil {
			return doc, nil
		}
		// A corrupt cache entry is dropped, not served.
		s.logger.WarnContext(ctx, "year config cache entry corrupt, reloading")
		if err := s.client.Del(ctx, cacheKey).Err(); err != nil {
			s.logger.WarnContext(ctx, "year config cache delete failed", slog.String("error", err.Error()))
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "year config cache read failed", slog.String("error", err.Error()))
	}

	doc, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(doc); err == nil {
		if err := s.client.Set(ctx, cacheKey, encoded, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "year config cache write failed", slog.String("error", err.Error()))
		}
	}
	return doc, nil
}

// Invalidate drops the cached document. Called after the year file is
// edited so the next read sees the change.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, cacheKey).Err()
}
