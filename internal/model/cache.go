package model

// CachedResponse is the payload stored under a cache key. Last write wins;
// expiry is TTL-driven, explicit deletion only happens via pattern
// invalidation.
type CachedResponse struct {
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	GenerationTimeMs int64    `json:"generation_time_ms"`
	Ctime            int64    `json:"ctime"`
}

// CacheMetricsSnapshot is a point-in-time copy of the process-wide counters.
type CacheMetricsSnapshot struct {
	Hits             int64   `json:"hits"`
	Misses           int64   `json:"misses"`
	Errors           int64   `json:"errors"`
	CorruptPayloads  int64   `json:"corrupt_payloads"`
	EstSavedMs       int64   `json:"est_saved_ms"`
	HitRate          float64 `json:"hit_rate"`
}
