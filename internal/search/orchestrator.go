package search

import (
	"context"
	"time"

	"github.com/xxxsen/docqa/internal/model"
)

const (
	// DefaultCandidateCount is how many candidates the backend is asked for
	// before the diversity pass narrows them down.
	DefaultCandidateCount = 20
	DefaultTopK           = 5
)

type Result struct {
	Chunks          []model.SearchChunk
	TotalCandidates int
	ElapsedMs       int64
}

// Orchestrator runs the retrieval pipeline: fetch a candidate set, re-rank
// it for diversity, truncate to the requested size.
type Orchestrator struct {
	client         *Client
	candidateCount int
}

func NewOrchestrator(client *Client, candidateCount int) *Orchestrator {
	if candidateCount <= 0 {
		candidateCount = DefaultCandidateCount
	}
	return &Orchestrator{client: client, candidateCount: candidateCount}
}

func (o *Orchestrator) Search(ctx context.Context, query string, filters *model.QueryFilters, topK int) (*Result, error) {
	start := time.Now()
	if topK <= 0 {
		topK = DefaultTopK
	}
	chunks, total, err := o.client.Search(ctx, query, o.candidateCount, filters)
	if err != nil {
		return nil, err
	}
	ranked := Rerank(chunks)
	if topK > len(ranked) {
		topK = len(ranked)
	}
	return &Result{
		Chunks:          ranked[:topK],
		TotalCandidates: total,
		ElapsedMs:       time.Since(start).Milliseconds(),
	}, nil
}

func (o *Orchestrator) Stats(ctx context.Context) (*model.CollectionStats, error) {
	return o.client.Stats(ctx)
}

func (o *Orchestrator) Health(ctx context.Context) bool {
	return o.client.Health(ctx)
}
