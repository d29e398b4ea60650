// Package executor implements the bounded iterative-refinement loop used for
// higher-complexity tiers. Each attempt receives explicit context about which
// prior candidates failed and why.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adalundhe/strata/core/classifier"
	"github.com/adalundhe/strata/core/router"
)

// ErrAllAttemptsExhausted is returned once the attempt bound is reached
// without a success. It is terminal for the executor; escalation to the
// fallback responder happens above.
var ErrAllAttemptsExhausted = errors.New("all attempts exhausted")

const (
	defaultMaxAttempts      = 3
	defaultAttemptTimeout   = 45 * time.Second
	defaultBriefingLimit    = 2048
	diagnosticSummaryBudget = 5 * time.Second
)

// ResolveFunc performs one resolution attempt against the named resource.
type ResolveFunc func(ctx context.Context, attempt Attempt) (any, error)

// DiagnosticSummarizer condenses an escalation's failure history for the
// logs. Best effort: a nil summarizer or a summarization error never delays
// terminal fallback.
type DiagnosticSummarizer interface {
	SummarizeFailures(ctx context.Context, records []AttemptRecord) (string, error)
}

// Config bounds the retry loop.
type Config struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	BriefingLimit  int           `yaml:"briefing_limit"`
}

// DefaultConfig returns the standard retry bounds.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:    defaultMaxAttempts,
		AttemptTimeout: defaultAttemptTimeout,
		BriefingLimit:  defaultBriefingLimit,
	}
}

// Executor drives the Idle -> Attempting(i) -> {Succeeded, Exhausted} loop.
// The resource for each attempt comes from the router, so an override signal
// steers every retry, not just the first try.
type Executor struct {
	config     *Config
	selector   *router.Selector
	summarizer DiagnosticSummarizer
	logger     *slog.Logger
}

// New creates an Executor. The summarizer may be nil.
func New(config *Config, selector *router.Selector, summarizer DiagnosticSummarizer, logger *slog.Logger) *Executor {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.BriefingLimit <= 0 {
		config.BriefingLimit = defaultBriefingLimit
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		config:     config,
		selector:   selector,
		summarizer: summarizer,
		logger:     logger,
	}
}

// MaxAttempts returns the configured attempt bound.
func (e *Executor) MaxAttempts() int {
	return e.config.MaxAttempts
}

// BriefingLimit returns the briefing byte cap.
func (e *Executor) BriefingLimit() int {
	return e.config.BriefingLimit
}

// Resolve runs resolve up to MaxAttempts times, accumulating an AttemptRecord
// per try. A timeout is treated identically to any other attempt failure. On
// success it returns the resolved value together with the full attempt
// history; on exhaustion the returned error wraps ErrAllAttemptsExhausted.
func (e *Executor) Resolve(
	ctx context.Context,
	cls classifier.Classification,
	resolve ResolveFunc,
) (any, []AttemptRecord, error) {
	records := make([]AttemptRecord, 0, e.config.MaxAttempts)

	for i := 1; i <= e.config.MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, records, err
		}

		decision := e.selector.Select(cls)

		value, err := e.runAttempt(ctx, resolve, Attempt{
			Index:        i,
			ResourceName: decision.ResourceName,
			Briefing:     BuildBriefing(records, e.config.BriefingLimit),
			History:      records,
		})

		if err == nil {
			records = append(records, AttemptRecord{
				AttemptIndex: i,
				ResourceName: decision.ResourceName,
				Outcome:      OutcomeSuccess,
			})
			e.logger.Debug("attempt succeeded",
				"attempt", i,
				"resource", decision.ResourceName,
				"state", string(StateSucceeded))
			return value, records, nil
		}

		records = append(records, AttemptRecord{
			AttemptIndex: i,
			ResourceName: decision.ResourceName,
			Outcome:      OutcomeFailure,
			ErrorDetail:  errorDetail(err),
		})
		e.logger.Warn("attempt failed",
			"attempt", i,
			"resource", decision.ResourceName,
			"error", errorDetail(err))
	}

	e.logExhaustion(ctx, records)

	return nil, records, fmt.Errorf("%d attempts: %w", len(records), ErrAllAttemptsExhausted)
}

func (e *Executor) runAttempt(ctx context.Context, resolve ResolveFunc, attempt Attempt) (any, error) {
	attemptCtx := ctx
	if e.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.config.AttemptTimeout)
		defer cancel()
	}
	return resolve(attemptCtx, attempt)
}

// logExhaustion emits the terminal failure record, asking the summarizer for
// a diagnosis when one is wired. Summarization runs on its own short budget
// so it can never block fallback.
func (e *Executor) logExhaustion(ctx context.Context, records []AttemptRecord) {
	attrs := []any{"attempts", len(records), "state", string(StateExhausted)}

	if e.summarizer != nil {
		summaryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), diagnosticSummaryBudget)
		defer cancel()

		if summary, err := e.summarizer.SummarizeFailures(summaryCtx, records); err == nil && summary != "" {
			attrs = append(attrs, "diagnosis", summary)
		}
	}

	e.logger.Error("escalation exhausted", attrs...)
}

func errorDetail(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "resource call timed out: " + err.Error()
	}
	return err.Error()
}
