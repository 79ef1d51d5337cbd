package model

// QueryFilters narrows a search to a category and/or a single document.
// A nil *QueryFilters and a zero-valued one are different inputs for cache
// keying purposes.
type QueryFilters struct {
	Category string `json:"category,omitempty"`
	DocName  string `json:"doc_name,omitempty"`
}

type Query struct {
	Text      string        `json:"text"`
	UserID    string        `json:"user_id"`
	SessionID string        `json:"session_id"`
	Filters   *QueryFilters `json:"filters,omitempty"`
	TopK      int           `json:"top_k"`
}

// SearchChunk is one candidate returned by the search backend. Score is the
// only field the re-rank step mutates.
type SearchChunk struct {
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	DocName    string  `json:"doc_name"`
	PageNumber int     `json:"page_number"`
	Category   string  `json:"category"`
	ChunkIndex int     `json:"chunk_index"`
}

// Source is the per-chunk summary attached to an answer.
type Source struct {
	DocName    string  `json:"doc_name"`
	PageNumber int     `json:"page_number"`
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

type Answer struct {
	Text             string   `json:"text"`
	Sources          []Source `json:"sources"`
	CacheHit         bool     `json:"cache_hit"`
	SearchTimeMs     int64    `json:"search_time_ms"`
	GenerationTimeMs int64    `json:"generation_time_ms"`
	TotalTimeMs      int64    `json:"total_time_ms"`
}
