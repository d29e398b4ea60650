// Package request defines the normalized request type shared by the cache,
// classifier, and orchestrator. Normalization is idempotent so the same
// question always lands on the same cache key.
package request

import "strings"

// Request pairs the raw question text with its normalized form. The
// normalized key is the only representation used for cache keys and
// classifier input.
type Request struct {
	RawText       string
	NormalizedKey string
}

// New builds a Request from raw user text.
func New(raw string) Request {
	return Request{
		RawText:       raw,
		NormalizedKey: Normalize(raw),
	}
}

// Normalize lower-cases the text, trims surrounding whitespace, and collapses
// internal whitespace runs to single spaces. Normalize(Normalize(s)) equals
// Normalize(s) for all s.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
