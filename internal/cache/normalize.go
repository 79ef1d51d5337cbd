package cache

import (
	"regexp"
	"sort"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w\s]+`)

// Articles, pronouns, auxiliaries and question words. Tokens of length <= 1
// are dropped before this set is consulted.
var stopWords = map[string]struct{}{
	"the": {}, "an": {},
	"me": {}, "my": {}, "we": {}, "us": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "it": {}, "its": {},
	"they": {}, "them": {}, "their": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"am": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"may": {}, "might": {}, "must": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "whom": {}, "whose": {},
	"why": {}, "how": {},
	"and": {}, "or": {}, "not": {}, "no": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {},
	"about": {}, "from": {}, "as": {}, "by": {}, "if": {},
}

// Normalize canonicalizes raw query text into stable key material:
// lowercase, strip punctuation, drop stop words and single-character tokens,
// sort the remainder and join with single spaces. Equivalent questions
// ("What is the return policy?", "return policy what is") normalize to the
// same string; an all-stop-word query normalizes to "". Idempotent.
func Normalize(text string) string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), "")
	tokens := make([]string, 0, 8)
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 1 {
			continue
		}
		if _, ok := stopWords[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
