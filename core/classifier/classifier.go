// Package classifier scores normalized request text against declarative
// signal tables and maps the score to a complexity tier. Classification is a
// pure function of the tables: identical input always yields an identical
// result, and there is no failure path.
package classifier

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Tier is a named complexity level for a request.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// Classification is the scorer's verdict for one request. It is computed
// fresh per request and never persisted on its own.
type Classification struct {
	Tier           Tier
	Confidence     float64
	Score          float64
	MatchedSignals []string
	Urgent         bool
	Structural     bool
}

// Classifier evaluates the signal tables against normalized text.
type Classifier struct {
	config     *Config
	raising    map[string]*regexp.Regexp
	lowering   map[string]*regexp.Regexp
	structural map[string]*regexp.Regexp
	urgency    map[string]*regexp.Regexp
	medium     []*regexp.Regexp
	mu         sync.RWMutex
}

// New creates a Classifier, compiling the configured signal tables.
func New(config *Config) *Classifier {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Classifier{config: config}
	c.compile()
	return c
}

func (c *Classifier) compile() {
	c.raising = compileSignals(c.config.RaisingSignals)
	c.lowering = compileSignals(c.config.LoweringSignals)
	c.structural = compileSignals(c.config.StructuralSignals)
	c.urgency = compileSignals(c.config.UrgencySignals)
	c.medium = compilePatterns(c.config.MediumPatterns)
}

func compileSignals(signals []string) map[string]*regexp.Regexp {
	compiled := make(map[string]*regexp.Regexp, len(signals))
	for _, sig := range signals {
		pattern := `\b` + regexp.QuoteMeta(strings.ToLower(sig)) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			compiled[sig] = re
		}
	}
	return compiled
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// Classify scores the normalized text and maps it to a tier. An explicit
// urgency signal short-circuits scoring and forces the lowest tier.
func (c *Classifier) Classify(normalized string) Classification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if urgent := matchSignals(normalized, c.urgency); len(urgent) > 0 {
		return Classification{
			Tier:           TierSimple,
			Confidence:     c.config.Thresholds.UrgencyConfidence,
			MatchedSignals: labelSignals("urgent", urgent),
			Urgent:         true,
		}
	}

	raising := matchSignals(normalized, c.raising)
	lowering := matchSignals(normalized, c.lowering)
	structural := matchSignals(normalized, c.structural)

	signals := labelSignals("raise", raising)
	signals = append(signals, labelSignals("lower", lowering)...)
	signals = append(signals, labelSignals("structural", structural)...)
	sort.Strings(signals)

	t := c.config.Thresholds
	raisingCount := len(raising) + len(structural)
	score := float64(raisingCount)*t.RaisingWeight - float64(len(lowering))*t.LoweringWeight

	result := Classification{
		Score:          score,
		MatchedSignals: signals,
		Structural:     len(structural) > 0,
	}

	switch {
	case score >= t.ComplexScore:
		result.Tier = TierComplex
		result.Confidence = t.ComplexConfidence
	case score >= t.ProbableScore:
		result.Tier = TierComplex
		result.Confidence = t.ProbableConfidence
	case raisingCount == 0 && c.matchesMediumPattern(normalized):
		result.Tier = TierMedium
		result.Confidence = t.MediumConfidence
	default:
		result.Tier = TierSimple
		result.Confidence = t.SimpleConfidence
	}

	return result
}

func (c *Classifier) matchesMediumPattern(normalized string) bool {
	for _, re := range c.medium {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// UpdateConfig swaps the signal tables, recompiling all patterns. Used by
// the config watcher for hot reload.
func (c *Classifier) UpdateConfig(config *Config) {
	if config == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = config
	c.compile()
}

func matchSignals(text string, signals map[string]*regexp.Regexp) []string {
	var matched []string
	for sig, re := range signals {
		if re.MatchString(text) {
			matched = append(matched, sig)
		}
	}
	sort.Strings(matched)
	return matched
}

func labelSignals(kind string, signals []string) []string {
	labeled := make([]string, 0, len(signals))
	for _, sig := range signals {
		labeled = append(labeled, kind+":"+sig)
	}
	return labeled
}
