package repo

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/dbutil"
)

// ConversationRepo is the append-only log of query/response turns. Rows are
// never updated or deleted here.
type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func newEntryID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Append inserts an entry and returns its generated id.
func (r *ConversationRepo) Append(ctx context.Context, entry *model.ConversationEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = newEntryID()
	}
	ctime := entry.Ctime
	if ctime == 0 {
		ctime = time.Now().UnixMilli()
	}
	sources, err := json.Marshal(entry.Sources)
	if err != nil {
		return "", err
	}
	if entry.Sources == nil {
		sources = []byte("[]")
	}
	data := map[string]interface{}{
		"id":                 id,
		"user_id":            entry.UserID,
		"session_id":         entry.SessionID,
		"query":              entry.Query,
		"response":           entry.Response,
		"sources":            sources,
		"cache_hit":          entry.CacheHit,
		"search_time_ms":     entry.SearchTimeMs,
		"generation_time_ms": entry.GenerationTimeMs,
		"ctime":              ctime,
	}
	sqlStr, args, err := builder.BuildInsert("conversations", []map[string]interface{}{data})
	if err != nil {
		return "", err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return "", err
	}
	return id, nil
}

// Recent returns at most limit entries for the exact (user, session) pair,
// ordered oldest to newest.
func (r *ConversationRepo) Recent(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationEntry, error) {
	const query = `
		SELECT id, user_id, session_id, query, response, sources, cache_hit, search_time_ms, generation_time_ms, ctime
		FROM conversations
		WHERE user_id = $1 AND session_id = $2
		ORDER BY ctime DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.ConversationEntry
	for rows.Next() {
		var item model.ConversationEntry
		var sources []byte
		if err := rows.Scan(&item.ID, &item.UserID, &item.SessionID, &item.Query, &item.Response,
			&sources, &item.CacheHit, &item.SearchTimeMs, &item.GenerationTimeMs, &item.Ctime); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &item.Sources); err != nil {
				return nil, err
			}
		}
		entries = append(entries, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// query returns newest first; callers want oldest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Report aggregates per-distinct-query usage: how often each question is
// asked, how often the cache answered it, and average backend latencies.
// Read-only, meant for reporting rather than the request path.
func (r *ConversationRepo) Report(ctx context.Context, limit int) ([]model.QueryReportRow, error) {
	const query = `
		SELECT query,
		       COUNT(*) AS cnt,
		       AVG(CASE WHEN cache_hit THEN 1.0 ELSE 0.0 END) AS hit_rate,
		       AVG(search_time_ms) AS avg_search_ms,
		       AVG(generation_time_ms) AS avg_gen_ms
		FROM conversations
		GROUP BY query
		ORDER BY cnt DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var report []model.QueryReportRow
	for rows.Next() {
		var row model.QueryReportRow
		if err := rows.Scan(&row.Query, &row.Count, &row.HitRate, &row.AvgSearchTimeMs, &row.AvgGenTimeMs); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
