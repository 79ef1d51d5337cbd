package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/cache"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/search"
)

const (
	historyTurns   = 5
	excerptLimit   = 200
	fallbackChunks = 3

	systemInstruction = "You are a helpful assistant answering questions about internal company documents. " +
		"Answer using only the provided context excerpts and cite the document name when relevant. " +
		"If the context does not contain the answer, say so plainly."
)

// Searcher is the retrieval pipeline the router calls on a cache miss.
type Searcher interface {
	Search(ctx context.Context, query string, filters *model.QueryFilters, topK int) (*search.Result, error)
}

// HistoryStore is the durable append-only conversation log.
type HistoryStore interface {
	Append(ctx context.Context, entry *model.ConversationEntry) (string, error)
	Recent(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationEntry, error)
}

type QueryServiceOptions struct {
	// CoalesceMisses shares one search+generation+cache-write between
	// concurrent identical misses. Off by default: the baseline behavior is
	// independent execution with last-write-wins convergence.
	CoalesceMisses bool
}

// QueryService sequences one request: cache check, then on a miss search,
// history load, generation, cache write, and finally a history append.
// The steps are strictly sequential; nothing runs speculatively.
type QueryService struct {
	store     cache.Store
	ttl       *cache.TTLPolicy
	metrics   *cache.Metrics
	searcher  Searcher
	generator ai.IGenerator
	history   HistoryStore
	coalesce  bool
	flight    singleflight.Group
}

func NewQueryService(
	store cache.Store,
	ttl *cache.TTLPolicy,
	metrics *cache.Metrics,
	searcher Searcher,
	generator ai.IGenerator,
	history HistoryStore,
	opts QueryServiceOptions,
) *QueryService {
	return &QueryService{
		store:     store,
		ttl:       ttl,
		metrics:   metrics,
		searcher:  searcher,
		generator: generator,
		history:   history,
		coalesce:  opts.CoalesceMisses,
	}
}

// Ask answers one query. Cache and generation trouble degrade locally;
// only a search backend failure surfaces as an error.
func (s *QueryService) Ask(ctx context.Context, q *model.Query) (*model.Answer, error) {
	start := time.Now()
	key := cache.GenerateKey(q.Text, q.Filters)
	logger := logutil.GetLogger(ctx).With(zap.String("key", key))

	cached, status := s.store.Get(ctx, key)
	switch status {
	case cache.GetHit:
		s.metrics.Hit(cached.GenerationTimeMs)
		ans := &model.Answer{
			Text:             cached.Answer,
			Sources:          cached.Sources,
			CacheHit:         true,
			SearchTimeMs:     0,
			GenerationTimeMs: cached.GenerationTimeMs,
		}
		s.recordHistory(ctx, q, ans)
		ans.TotalTimeMs = time.Since(start).Milliseconds()
		logger.Debug("cache hit")
		return ans, nil
	case cache.GetCorrupt:
		s.metrics.CorruptPayload()
		s.metrics.Miss()
	case cache.GetError:
		s.metrics.BackendError()
		s.metrics.Miss()
	default:
		s.metrics.Miss()
	}

	var ans *model.Answer
	var err error
	if s.coalesce {
		var v interface{}
		v, err, _ = s.flight.Do(key, func() (interface{}, error) {
			return s.answerUncached(ctx, q, key)
		})
		if err == nil {
			shared := v.(*model.Answer)
			copied := *shared
			ans = &copied
		}
	} else {
		ans, err = s.answerUncached(ctx, q, key)
	}
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, q, ans)
	ans.TotalTimeMs = time.Since(start).Milliseconds()
	return ans, nil
}

// answerUncached runs the miss path up to and including the cache write.
// History writes stay outside so coalesced callers each log their own turn.
func (s *QueryService) answerUncached(ctx context.Context, q *model.Query, key string) (*model.Answer, error) {
	res, err := s.searcher.Search(ctx, q.Text, q.Filters, q.TopK)
	if err != nil {
		return nil, err
	}

	var history []model.ConversationEntry
	if q.UserID != "" && q.SessionID != "" {
		history, err = s.history.Recent(ctx, q.UserID, q.SessionID, historyTurns)
		if err != nil {
			logutil.GetLogger(ctx).Warn("load conversation history failed", zap.Error(err))
			history = nil
		}
	}

	genStart := time.Now()
	text, genErr := s.generator.Chat(ctx, buildMessages(q.Text, res.Chunks, history))
	genMs := time.Since(genStart).Milliseconds()
	if genErr != nil {
		logutil.GetLogger(ctx).Warn("generation failed, degrading to excerpts", zap.Error(genErr))
		text = fallbackAnswer(res.Chunks)
	}

	sources := buildSources(res.Chunks)
	if genErr == nil {
		// degraded answers are not cached; a later request should get a
		// real generation attempt instead of a pinned error notice
		category := ""
		if q.Filters != nil {
			category = q.Filters.Category
		}
		s.store.Set(ctx, key, &model.CachedResponse{
			Answer:           text,
			Sources:          sources,
			GenerationTimeMs: genMs,
			Ctime:            time.Now().UnixMilli(),
		}, s.ttl.For(category))
	}

	return &model.Answer{
		Text:             text,
		Sources:          sources,
		CacheHit:         false,
		SearchTimeMs:     res.ElapsedMs,
		GenerationTimeMs: genMs,
	}, nil
}

// recordHistory appends one conversation turn. Callers supplying no user
// identifier are not persisted. A write failure is logged and swallowed; a
// lost history row is not worth failing an otherwise good answer.
func (s *QueryService) recordHistory(ctx context.Context, q *model.Query, ans *model.Answer) {
	if q.UserID == "" {
		return
	}
	entry := &model.ConversationEntry{
		UserID:           q.UserID,
		SessionID:        q.SessionID,
		Query:            q.Text,
		Response:         ans.Text,
		Sources:          ans.Sources,
		CacheHit:         ans.CacheHit,
		SearchTimeMs:     ans.SearchTimeMs,
		GenerationTimeMs: ans.GenerationTimeMs,
	}
	if _, err := s.history.Append(ctx, entry); err != nil {
		logutil.GetLogger(ctx).Warn("conversation append failed", zap.Error(err))
	}
}

func buildMessages(query string, chunks []model.SearchChunk, history []model.ConversationEntry) []ai.Message {
	msgs := make([]ai.Message, 0, len(history)*2+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemInstruction})
	for _, h := range history {
		msgs = append(msgs,
			ai.Message{Role: ai.RoleUser, Content: h.Query},
			ai.Message{Role: ai.RoleAssistant, Content: h.Response},
		)
	}
	var b strings.Builder
	b.WriteString("Context excerpts:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s (page %d)\n%s\n\n", i+1, c.DocName, c.PageNumber, c.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: b.String()})
	return msgs
}

func buildSources(chunks []model.SearchChunk) []model.Source {
	sources := make([]model.Source, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, model.Source{
			DocName:    c.DocName,
			PageNumber: c.PageNumber,
			Category:   c.Category,
			Score:      roundScore(c.Score),
			Excerpt:    truncateExcerpt(c.Text),
		})
	}
	return sources
}

func fallbackAnswer(chunks []model.SearchChunk) string {
	if len(chunks) == 0 {
		return "The answer could not be generated right now; please try again later."
	}
	var b strings.Builder
	b.WriteString("The answer generator is currently unavailable. The most relevant excerpts are shown instead:\n\n")
	for i, c := range chunks {
		if i >= fallbackChunks {
			break
		}
		fmt.Fprintf(&b, "- %s (page %d): %s\n", c.DocName, c.PageNumber, truncateExcerpt(c.Text))
	}
	return b.String()
}

func truncateExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}

func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
