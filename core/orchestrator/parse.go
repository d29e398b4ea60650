package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// CandidateKind tags how much structure the provider boundary recovered from
// a raw completion.
type CandidateKind string

const (
	CandidateStructured   CandidateKind = "structured"
	CandidateUnstructured CandidateKind = "unstructured"
)

// Candidate is the tagged result of parsing one provider completion. Both
// variants are handled explicitly by the pipeline: structured candidates go
// to the data executor, unstructured ones fail the attempt and feed retry.
type Candidate struct {
	Kind      CandidateKind
	SQL       string
	Reasoning string
	Raw       string
}

type candidateEnvelope struct {
	SQL       string `json:"sql"`
	Reasoning string `json:"reasoning"`
}

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json|sql)?\\s*(.*?)\\s*```")

// ParseCandidate recovers a candidate query from raw completion text. It
// tries a direct JSON parse, then a fenced code block, then treats text that
// already reads as a query as the candidate itself. Anything else is
// Unstructured.
func ParseCandidate(raw string) Candidate {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Candidate{Kind: CandidateUnstructured, Raw: raw}
	}

	if c, ok := parseEnvelope(trimmed); ok {
		return c
	}

	if block := extractFencedBlock(trimmed); block != "" {
		if c, ok := parseEnvelope(block); ok {
			return c
		}
		if isQuery(block) {
			return Candidate{Kind: CandidateStructured, SQL: block, Raw: raw}
		}
	}

	if isQuery(trimmed) {
		return Candidate{Kind: CandidateStructured, SQL: trimmed, Raw: raw}
	}

	return Candidate{Kind: CandidateUnstructured, Raw: raw}
}

func parseEnvelope(text string) (Candidate, bool) {
	var envelope candidateEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return Candidate{}, false
	}
	if envelope.SQL == "" {
		return Candidate{}, false
	}
	return Candidate{
		Kind:      CandidateStructured,
		SQL:       strings.TrimSpace(envelope.SQL),
		Reasoning: envelope.Reasoning,
		Raw:       text,
	}, true
}

func extractFencedBlock(text string) string {
	match := fencedBlockPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func isQuery(text string) bool {
	lowered := strings.ToLower(text)
	return strings.HasPrefix(lowered, "select") || strings.HasPrefix(lowered, "with")
}
