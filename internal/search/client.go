package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"

	"github.com/xxxsen/docqa/internal/model"
)

// Client talks to the ingestion service's search API. That service owns the
// embedding model and the vector index; this side only sends text and
// receives scored candidates.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	Query    string `json:"query"`
	NResults int    `json:"n_results"`
	Category string `json:"category,omitempty"`
	DocName  string `json:"doc_name,omitempty"`
}

type searchResponse struct {
	Query           string              `json:"query"`
	Results         []model.SearchChunk `json:"results"`
	TotalCandidates int                 `json:"total_candidates"`
	SearchTimeMs    float64             `json:"search_time_ms"`
}

// Search requests candidates ranked by similarity, optionally filtered by
// category and document name. Any transport failure or non-2xx status is a
// retrieval failure; no fallback happens at this layer.
func (c *Client) Search(ctx context.Context, query string, nResults int, filters *model.QueryFilters) ([]model.SearchChunk, int, error) {
	reqBody := searchRequest{
		Query:    query,
		NResults: nResults,
	}
	if filters != nil {
		reqBody.Category = filters.Category
		reqBody.DocName = filters.DocName
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: encode request: %v", appErr.ErrSearchBackend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", appErr.ErrSearchBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", appErr.ErrSearchBackend, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("%w: %s: %s", appErr.ErrSearchBackend, resp.Status, strings.TrimSpace(string(body)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("%w: decode response: %v", appErr.ErrSearchBackend, err)
	}
	return out.Results, out.TotalCandidates, nil
}

// Stats fetches collection statistics from the search backend.
func (c *Client) Stats(ctx context.Context) (*model.CollectionStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrSearchBackend, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrSearchBackend, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", appErr.ErrSearchBackend, resp.Status)
	}
	var out model.CollectionStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode stats: %v", appErr.ErrSearchBackend, err)
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
