package service

import (
	"context"
	"strings"

	"github.com/xxxsen/docqa/internal/cache"
	"github.com/xxxsen/docqa/internal/model"
)

// CacheService exposes the administrative cache surface: metrics snapshots,
// explicit reset and wildcard invalidation.
type CacheService struct {
	store   cache.Store
	metrics *cache.Metrics
}

func NewCacheService(store cache.Store, metrics *cache.Metrics) *CacheService {
	return &CacheService{store: store, metrics: metrics}
}

// Invalidate removes cached responses matching the wildcard pattern.
// Patterns are confined to the response-cache namespace so an overly broad
// wildcard cannot touch unrelated keys in the same Redis.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) (int64, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !strings.HasPrefix(pattern, cache.KeyNamespace) {
		pattern = cache.KeyNamespace + pattern
	}
	return s.store.Invalidate(ctx, pattern)
}

func (s *CacheService) Metrics() model.CacheMetricsSnapshot {
	return s.metrics.Snapshot()
}

func (s *CacheService) ResetMetrics() {
	s.metrics.Reset()
}

func (s *CacheService) Health(ctx context.Context) bool {
	return s.store.Health(ctx)
}
