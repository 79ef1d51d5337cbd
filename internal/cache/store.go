package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/model"
)

// GetStatus distinguishes the outcomes of a cache lookup. Miss, Corrupt and
// Error all route to the uncached path; they are separated so the metrics
// collector can count corruption and backend trouble on their own.
type GetStatus int

const (
	GetHit GetStatus = iota
	GetMiss
	GetCorrupt
	GetError
)

// Store is the key-value cache contract the router depends on. The backing
// store is assumed unreliable: implementations absorb backend failures so an
// outage degrades the system to "no caching", never to "no service".
type Store interface {
	Get(ctx context.Context, key string) (*model.CachedResponse, GetStatus)
	Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration)
	Invalidate(ctx context.Context, pattern string) (int64, error)
	Health(ctx context.Context) bool
}

const invalidateScanPage = 100

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) (*model.CachedResponse, GetStatus) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, GetMiss
	}
	if err != nil {
		logutil.GetLogger(ctx).Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, GetError
	}
	var resp model.CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logutil.GetLogger(ctx).Warn("cache payload undecodable", zap.String("key", key), zap.Error(err))
		return nil, GetCorrupt
	}
	return &resp, GetHit
}

// Set is best-effort: a write failure is logged and absorbed.
func (s *redisStore) Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logutil.GetLogger(ctx).Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logutil.GetLogger(ctx).Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate scans the keyspace in bounded pages and deletes every key
// matching the pattern, returning the total removed.
func (s *redisStore) Invalidate(ctx context.Context, pattern string) (int64, error) {
	var removed int64
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, invalidateScanPage).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (s *redisStore) Health(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}
