package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/docqa/internal/model"
)

const (
	// KeyNamespace prefixes every response-cache key so pattern invalidation
	// can target the whole response keyspace without touching anything else
	// living in the same Redis.
	KeyNamespace = "docqa:q:"

	keyDigestLen = 16
)

// GenerateKey derives a deterministic cache key from the query text and its
// filters. Identical query+filters always collide; different categories
// under the same query never do. Note the asymmetry: a nil filters pointer
// and a present-but-empty QueryFilters yield distinct keys, because the
// filter suffix is only appended when a filters object was supplied at all.
func GenerateKey(text string, filters *model.QueryFilters) string {
	var b strings.Builder
	b.WriteString("query:")
	b.WriteString(Normalize(text))
	if filters != nil {
		b.WriteString("|cat:")
		b.WriteString(filters.Category)
		b.WriteString("|doc:")
		b.WriteString(filters.DocName)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return KeyNamespace + hex.EncodeToString(sum[:])[:keyDigestLen]
}
