package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/cache"
)

// CacheMetricsJob periodically logs a snapshot of the cache counters so hit
// rates show up in the logs without anyone having to poll the API.
type CacheMetricsJob struct {
	metrics *cache.Metrics
}

func NewCacheMetricsJob(metrics *cache.Metrics) *CacheMetricsJob {
	return &CacheMetricsJob{metrics: metrics}
}

func (j *CacheMetricsJob) Name() string {
	return "cache_metrics"
}

func (j *CacheMetricsJob) Run(ctx context.Context) error {
	snap := j.metrics.Snapshot()
	logutil.GetLogger(ctx).Info("cache metrics",
		zap.Int64("hits", snap.Hits),
		zap.Int64("misses", snap.Misses),
		zap.Int64("errors", snap.Errors),
		zap.Int64("corrupt_payloads", snap.CorruptPayloads),
		zap.Int64("est_saved_ms", snap.EstSavedMs),
		zap.Float64("hit_rate", snap.HitRate),
	)
	return nil
}
