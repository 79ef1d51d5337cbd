package search

import (
	"sort"

	"github.com/xxxsen/docqa/internal/model"
)

const (
	duplicatePagePenalty = 0.7
	sameDocPenalty       = 0.9
)

// Rerank applies the diversity pass over candidates in the order the backend
// returned them (descending similarity). A chunk from an already-seen
// (document, page) pair is penalized hardest, a chunk from a new page of an
// already-represented document more lightly, and the first chunk of a
// document keeps its score. The final sort is stable, so equal adjusted
// scores keep their original relative order.
func Rerank(chunks []model.SearchChunk) []model.SearchChunk {
	seen := make(map[string]map[int]struct{}, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		pages, ok := seen[c.DocName]
		switch {
		case !ok:
			seen[c.DocName] = map[int]struct{}{c.PageNumber: {}}
		default:
			if _, dup := pages[c.PageNumber]; dup {
				c.Score *= duplicatePagePenalty
			} else {
				c.Score *= sameDocPenalty
				pages[c.PageNumber] = struct{}{}
			}
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	return chunks
}
