package cache

import (
	"strings"
	"time"
)

const DefaultBaseTTL = time.Hour

// TTLPolicy maps a document category to a cache lifetime. Policy categories
// (hr_policy, it_policy, ...) change rarely and keep entries twice as long;
// meeting notes go stale quickly and get half the base lifetime.
type TTLPolicy struct {
	base time.Duration
}

func NewTTLPolicy(base time.Duration) *TTLPolicy {
	if base <= 0 {
		base = DefaultBaseTTL
	}
	return &TTLPolicy{base: base}
}

func (p *TTLPolicy) For(category string) time.Duration {
	switch {
	case strings.HasSuffix(category, "_policy"):
		return p.base * 2
	case category == "meeting_notes":
		return p.base / 2
	default:
		return p.base
	}
}
