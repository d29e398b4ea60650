// Package fallback is the deterministic terminal responder. It consults a
// fixed pattern table, calls no external resource, and produces a well-formed
// answer for any input whatsoever.
package fallback

// Response is the responder's output. Success is always true: when no
// specific pattern matches, the generic branch fires instead of failing.
type Response struct {
	Success   bool
	PatternID string
	Family    Family
	Query     string
	Entity    string
}

// Responder evaluates the ordered pattern table.
type Responder struct {
	patterns []Pattern
}

// New creates a Responder with the built-in pattern table.
func New() *Responder {
	return &Responder{patterns: defaultPatterns()}
}

// Respond matches the normalized text against the pattern table. Exactly one
// of a specific pattern or the generic branch fires; the result is always
// successful.
func (r *Responder) Respond(normalized string) Response {
	e := extractEntity(normalized)

	for _, p := range r.patterns {
		if p.matcher.Match(normalized) {
			return Response{
				Success:   true,
				PatternID: p.ID,
				Family:    p.Family,
				Query:     p.build(e),
				Entity:    e.name,
			}
		}
	}

	return Response{
		Success:   true,
		PatternID: "generic",
		Family:    FamilyGeneric,
		Query:     buildGeneric(e),
		Entity:    e.name,
	}
}

// PatternCount returns the number of specific patterns in the table.
func (r *Responder) PatternCount() int {
	return len(r.patterns)
}
