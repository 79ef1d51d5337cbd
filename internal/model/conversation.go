package model

type ConversationEntry struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	SessionID        string   `json:"session_id"`
	Query            string   `json:"query"`
	Response         string   `json:"response"`
	Sources          []Source `json:"sources"`
	CacheHit         bool     `json:"cache_hit"`
	SearchTimeMs     int64    `json:"search_time_ms"`
	GenerationTimeMs int64    `json:"generation_time_ms"`
	Ctime            int64    `json:"ctime"`
}

// QueryReportRow aggregates history for one distinct query text.
type QueryReportRow struct {
	Query           string  `json:"query"`
	Count           int64   `json:"count"`
	HitRate         float64 `json:"hit_rate"`
	AvgSearchTimeMs float64 `json:"avg_search_time_ms"`
	AvgGenTimeMs    float64 `json:"avg_generation_time_ms"`
}
