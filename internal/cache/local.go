package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/model"
)

// WrapLocalTier layers an in-process expirable LRU in front of another
// Store. Entries are read-only once cached, so the tiers can share pointers.
// The local tier expires every entry after its own fixed ttl, so it should
// be configured shorter than the backing store's policy TTLs.
func WrapLocalTier(next Store, size int, ttl time.Duration) Store {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &localTier{
		next:  next,
		cache: expirable.NewLRU[string, *model.CachedResponse](size, nil, ttl),
	}
}

type localTier struct {
	next  Store
	cache *expirable.LRU[string, *model.CachedResponse]
}

func (l *localTier) Get(ctx context.Context, key string) (*model.CachedResponse, GetStatus) {
	if cached, ok := l.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("response cache hit (local)", zap.String("key", key))
		return cached, GetHit
	}
	resp, status := l.next.Get(ctx, key)
	if status == GetHit {
		l.cache.Add(key, resp)
	}
	return resp, status
}

func (l *localTier) Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) {
	l.cache.Add(key, value)
	l.next.Set(ctx, key, value, ttl)
}

func (l *localTier) Invalidate(ctx context.Context, pattern string) (int64, error) {
	// The local tier has no pattern matching; dropping it entirely keeps
	// invalidation correct at the cost of a cold local cache.
	l.cache.Purge()
	return l.next.Invalidate(ctx, pattern)
}

func (l *localTier) Health(ctx context.Context) bool {
	return l.next.Health(ctx)
}
