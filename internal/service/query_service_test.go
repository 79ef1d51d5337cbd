package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/cache"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/search"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]model.CachedResponse
	down bool
	sets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]model.CachedResponse{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (*model.CachedResponse, cache.GetStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, cache.GetError
	}
	if v, ok := f.data[key]; ok {
		copied := v
		return &copied, cache.GetHit
	}
	return nil, cache.GetMiss
}

func (f *fakeStore) Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return
	}
	f.data[key] = *value
	f.sets++
}

func (f *fakeStore) Invalidate(ctx context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var removed int64
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) Health(ctx context.Context) bool {
	return !f.down
}

type fakeSearcher struct {
	mu     sync.Mutex
	chunks []model.SearchChunk
	err    error
	calls  int
	block  chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, filters *model.QueryFilters, topK int) (*search.Result, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	chunks := f.chunks
	if topK <= 0 {
		topK = 5
	}
	if topK < len(chunks) {
		chunks = chunks[:topK]
	}
	out := make([]model.SearchChunk, len(chunks))
	copy(out, chunks)
	return &search.Result{Chunks: out, TotalCandidates: len(f.chunks), ElapsedMs: 12}, nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	calls    int
	messages []ai.Message
}

func (f *fakeGenerator) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []model.ConversationEntry
	err     error
}

func (f *fakeHistory) Append(ctx context.Context, entry *model.ConversationEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	e := *entry
	e.ID = "id-1"
	e.Ctime = time.Now().UnixMilli()
	f.entries = append(f.entries, e)
	return e.ID, nil
}

func (f *fakeHistory) Recent(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ConversationEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func testChunks() []model.SearchChunk {
	return []model.SearchChunk{
		{ChunkID: "c1", Text: "Employees accrue 20 days of annual leave.", Score: 0.91, DocName: "handbook.pdf", PageNumber: 4, Category: "hr_policy"},
		{ChunkID: "c2", Text: "Leave requests require manager approval.", Score: 0.84, DocName: "handbook.pdf", PageNumber: 9, Category: "hr_policy"},
	}
}

func newTestService(store cache.Store, searcher Searcher, gen ai.IGenerator, history HistoryStore, opts QueryServiceOptions) (*QueryService, *cache.Metrics) {
	metrics := cache.NewMetrics()
	return NewQueryService(store, cache.NewTTLPolicy(time.Hour), metrics, searcher, gen, history, opts), metrics
}

func TestAskMissThenHit(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{chunks: testChunks()}
	gen := &fakeGenerator{text: "You accrue 20 days of annual leave per year."}
	history := &fakeHistory{}
	svc, metrics := newTestService(store, searcher, gen, history, QueryServiceOptions{})

	q := &model.Query{Text: "What is the employee leave policy?", UserID: "u1", SessionID: "s1"}
	first, err := svc.Ask(context.Background(), q)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, gen.text, first.Text)
	require.LessOrEqual(t, len(first.Sources), 5)

	second, err := svc.Ask(context.Background(), q)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Zero(t, second.SearchTimeMs)
	require.Equal(t, first.GenerationTimeMs, second.GenerationTimeMs)
	require.Equal(t, first.Text, second.Text)
	require.Equal(t, 1, searcher.calls)
	require.Equal(t, 1, gen.calls)

	snap := metrics.Snapshot()
	require.EqualValues(t, 1, snap.Hits)
	require.EqualValues(t, 1, snap.Misses)

	require.Len(t, history.entries, 2)
	require.False(t, history.entries[0].CacheHit)
	require.True(t, history.entries[1].CacheHit)
}

func TestAskEquivalentPhrasingHitsSameEntry(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{chunks: testChunks()}
	gen := &fakeGenerator{text: "answer"}
	svc, _ := newTestService(store, searcher, gen, &fakeHistory{}, QueryServiceOptions{})

	_, err := svc.Ask(context.Background(), &model.Query{Text: "What is the return policy?"})
	require.NoError(t, err)
	second, err := svc.Ask(context.Background(), &model.Query{Text: "return policy what is"})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
}

func TestAskCacheBackendDown(t *testing.T) {
	store := newFakeStore()
	store.down = true
	searcher := &fakeSearcher{chunks: testChunks()}
	gen := &fakeGenerator{text: "answer"}
	svc, metrics := newTestService(store, searcher, gen, &fakeHistory{}, QueryServiceOptions{})

	ans, err := svc.Ask(context.Background(), &model.Query{Text: "leave policy"})
	require.NoError(t, err)
	require.False(t, ans.CacheHit)
	require.Equal(t, "answer", ans.Text)
	require.EqualValues(t, 1, metrics.Snapshot().Errors)
}

func TestAskGenerationDownWithChunks(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{chunks: testChunks()}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	svc, _ := newTestService(store, searcher, gen, &fakeHistory{}, QueryServiceOptions{})

	ans, err := svc.Ask(context.Background(), &model.Query{Text: "leave policy"})
	require.NoError(t, err)
	require.Contains(t, ans.Text, "unavailable")
	require.Contains(t, ans.Text, "Employees accrue 20 days")
	require.Equal(t, 0, store.sets, "degraded answers must not be cached")
}

func TestAskGenerationDownNoChunks(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	svc, _ := newTestService(store, searcher, gen, &fakeHistory{}, QueryServiceOptions{})

	ans, err := svc.Ask(context.Background(), &model.Query{Text: "leave policy"})
	require.NoError(t, err)
	require.Contains(t, ans.Text, "could not be generated")
	require.Empty(t, ans.Sources)
}

func TestAskSearchFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{err: appErr.ErrSearchBackend}
	gen := &fakeGenerator{text: "answer"}
	svc, _ := newTestService(store, searcher, gen, &fakeHistory{}, QueryServiceOptions{})

	_, err := svc.Ask(context.Background(), &model.Query{Text: "leave policy"})
	require.Error(t, err)
	require.True(t, appErr.IsSearchBackend(err))
	require.Equal(t, 0, gen.calls)
}

func TestAskAnonymousNotPersisted(t *testing.T) {
	store := newFakeStore()
	history := &fakeHistory{}
	svc, _ := newTestService(store, &fakeSearcher{chunks: testChunks()}, &fakeGenerator{text: "a"}, history, QueryServiceOptions{})

	_, err := svc.Ask(context.Background(), &model.Query{Text: "leave policy"})
	require.NoError(t, err)
	require.Empty(t, history.entries)
}

func TestAskHistoryWriteFailureDoesNotFailRequest(t *testing.T) {
	store := newFakeStore()
	history := &fakeHistory{err: errors.New("db gone")}
	svc, _ := newTestService(store, &fakeSearcher{chunks: testChunks()}, &fakeGenerator{text: "a"}, history, QueryServiceOptions{})

	ans, err := svc.Ask(context.Background(), &model.Query{Text: "leave policy", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "a", ans.Text)
}

func TestAskSourceShaping(t *testing.T) {
	long := strings.Repeat("x", 450)
	store := newFakeStore()
	searcher := &fakeSearcher{chunks: []model.SearchChunk{
		{ChunkID: "c1", Text: long, Score: 0.87654, DocName: "a.pdf", PageNumber: 1, Category: "finance"},
	}}
	svc, _ := newTestService(store, searcher, &fakeGenerator{text: "a"}, &fakeHistory{}, QueryServiceOptions{})

	ans, err := svc.Ask(context.Background(), &model.Query{Text: "expense limits"})
	require.NoError(t, err)
	require.Len(t, ans.Sources, 1)
	src := ans.Sources[0]
	require.InDelta(t, 0.877, src.Score, 1e-12)
	require.Len(t, src.Excerpt, 203)
	require.True(t, strings.HasSuffix(src.Excerpt, "..."))
}

func TestAskBuildsAlternatingHistory(t *testing.T) {
	store := newFakeStore()
	history := &fakeHistory{entries: []model.ConversationEntry{
		{UserID: "u1", SessionID: "s1", Query: "first question", Response: "first answer"},
		{UserID: "u1", SessionID: "s1", Query: "second question", Response: "second answer"},
	}}
	gen := &fakeGenerator{text: "a"}
	svc, _ := newTestService(store, &fakeSearcher{chunks: testChunks()}, gen, history, QueryServiceOptions{})

	_, err := svc.Ask(context.Background(), &model.Query{Text: "third question", UserID: "u1", SessionID: "s1"})
	require.NoError(t, err)

	msgs := gen.messages
	require.GreaterOrEqual(t, len(msgs), 6)
	require.Equal(t, ai.RoleSystem, msgs[0].Role)
	require.Equal(t, ai.RoleUser, msgs[1].Role)
	require.Equal(t, "first question", msgs[1].Content)
	require.Equal(t, ai.RoleAssistant, msgs[2].Role)
	require.Equal(t, "first answer", msgs[2].Content)
	require.Equal(t, ai.RoleUser, msgs[3].Role)
	require.Equal(t, "second question", msgs[3].Content)
	last := msgs[len(msgs)-1]
	require.Equal(t, ai.RoleUser, last.Role)
	require.Contains(t, last.Content, "third question")
	require.Contains(t, last.Content, "handbook.pdf")
}

func TestAskCoalescesConcurrentMisses(t *testing.T) {
	store := newFakeStore()
	block := make(chan struct{})
	searcher := &fakeSearcher{chunks: testChunks(), block: block}
	gen := &fakeGenerator{text: "shared answer"}
	svc, _ := newTestService(store, searcher, gen, &fakeHistory{}, QueryServiceOptions{CoalesceMisses: true})

	q := &model.Query{Text: "leave policy"}
	var wg sync.WaitGroup
	answers := make([]*model.Answer, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ans, err := svc.Ask(context.Background(), q)
			require.NoError(t, err)
			answers[i] = ans
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	require.Equal(t, 1, searcher.calls)
	require.Equal(t, 1, gen.calls)
	require.Equal(t, answers[0].Text, answers[1].Text)
}
