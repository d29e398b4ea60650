package classifier

// Config carries the signal tables and scoring thresholds. The constants here
// are hand-tuned starting points, not derived truths, so every one of them is
// loadable from configuration.
type Config struct {
	RaisingSignals    []string   `yaml:"raising_signals"`
	LoweringSignals   []string   `yaml:"lowering_signals"`
	StructuralSignals []string   `yaml:"structural_signals"`
	UrgencySignals    []string   `yaml:"urgency_signals"`
	MediumPatterns    []string   `yaml:"medium_patterns"`
	Thresholds        Thresholds `yaml:"thresholds"`
}

// Thresholds maps an accumulated score to a tier and confidence.
type Thresholds struct {
	ComplexScore       float64 `yaml:"complex_score"`
	ProbableScore      float64 `yaml:"probable_score"`
	RaisingWeight      float64 `yaml:"raising_weight"`
	LoweringWeight     float64 `yaml:"lowering_weight"`
	ComplexConfidence  float64 `yaml:"complex_confidence"`
	ProbableConfidence float64 `yaml:"probable_confidence"`
	MediumConfidence   float64 `yaml:"medium_confidence"`
	SimpleConfidence   float64 `yaml:"simple_confidence"`
	UrgencyConfidence  float64 `yaml:"urgency_confidence"`
}

// DefaultThresholds returns the standard scoring thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ComplexScore:       3,
		ProbableScore:      1,
		RaisingWeight:      1,
		LoweringWeight:     0.5,
		ComplexConfidence:  0.95,
		ProbableConfidence: 0.80,
		MediumConfidence:   0.90,
		SimpleConfidence:   0.85,
		UrgencyConfidence:  0.95,
	}
}

// DefaultConfig returns the built-in signal tables.
func DefaultConfig() *Config {
	return &Config{
		RaisingSignals: []string{
			"join",
			"joined with",
			"aggregate",
			"aggregation",
			"group by",
			"grouped by",
			"total",
			"sum of",
			"average",
			"number of",
			"sorted by",
			"sort by",
			"order by",
			"ordered by",
			"descending",
			"ascending",
			"ranking",
			"percentile",
			"trend",
			"forecast",
			"year-over-year",
			"growth rate",
			"cohort",
			"breakdown",
			"distribution",
			"median",
			"correlation",
			"compare",
			"versus",
			"subquery",
			"nested",
		},
		LoweringSignals: []string{
			"show",
			"list",
			"display",
			"how many",
			"count",
			"what is",
			"give me",
		},
		StructuralSignals: []string{
			"window function",
			"with recursive",
			"recursive",
			"pivot",
			"partition by",
			"row_number",
			"dense_rank",
			"case when",
		},
		UrgencySignals: []string{
			"urgent",
			"urgently",
			"asap",
			"quickly",
			"right now",
			"immediately",
		},
		MediumPatterns: []string{
			`\btop \d+\b`,
			`\bfirst \d+\b`,
			`\bbottom \d+\b`,
			`\blast \d+\b`,
		},
		Thresholds: DefaultThresholds(),
	}
}
