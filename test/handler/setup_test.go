package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/cache"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/jwt"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/search"
	"github.com/xxxsen/docqa/internal/service"
	"github.com/xxxsen/docqa/test/testutil"
)

// memStore is an in-memory stand-in for the redis adapter.
type memStore struct {
	mu   sync.Mutex
	data map[string]model.CachedResponse
}

func newMemStore() *memStore {
	return &memStore{data: map[string]model.CachedResponse{}}
}

func (m *memStore) Get(ctx context.Context, key string) (*model.CachedResponse, cache.GetStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		copied := v
		return &copied, cache.GetHit
	}
	return nil, cache.GetMiss
}

func (m *memStore) Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = *value
}

func (m *memStore) Invalidate(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.data))
	m.data = map[string]model.CachedResponse{}
	return removed, nil
}

func (m *memStore) Health(ctx context.Context) bool {
	return true
}

type staticGenerator struct {
	text string
}

func (g staticGenerator) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	return g.text, nil
}

func newSearchBackend(t *testing.T) *httptest.Server {
	t.Helper()
	chunks := []model.SearchChunk{
		{ChunkID: "c1", Text: "Employees accrue 20 days of annual leave.", Score: 0.91, DocName: "handbook.pdf", PageNumber: 4, Category: "hr_policy"},
		{ChunkID: "c2", Text: "Leave requests require manager approval.", Score: 0.84, DocName: "handbook.pdf", PageNumber: 9, Category: "hr_policy"},
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results":          chunks,
				"total_candidates": 37,
				"search_time_ms":   8.2,
			})
		case "/stats":
			_ = json.NewEncoder(w).Encode(model.CollectionStats{
				TotalChunks:    37,
				TotalDocuments: 1,
				Documents:      []model.DocumentStats{{DocName: "handbook.pdf", ChunkCount: 37}},
			})
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	_, err := db.Exec("DELETE FROM conversations")
	require.NoError(t, err)

	backend := newSearchBackend(t)

	store := newMemStore()
	metrics := cache.NewMetrics()
	orchestrator := search.NewOrchestrator(search.NewClient(backend.URL, time.Second), 0)
	conversations := repo.NewConversationRepo(db)
	queryService := service.NewQueryService(
		store,
		cache.NewTTLPolicy(time.Hour),
		metrics,
		orchestrator,
		staticGenerator{text: "You accrue 20 days of annual leave per year."},
		conversations,
		service.QueryServiceOptions{},
	)
	cacheService := service.NewCacheService(store, metrics)
	historyService := service.NewHistoryService(conversations)

	deps := handler.RouterDeps{
		Query:          handler.NewQueryHandler(queryService, 5),
		Cache:          handler.NewCacheHandler(cacheService),
		Stats:          handler.NewStatsHandler(orchestrator, cacheService),
		History:        handler.NewHistoryHandler(historyService),
		AdminJWTSecret: []byte("test-secret"),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, func() {
		backend.Close()
		cleanup()
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.GenerateToken("ops", "admin", []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return token
}
