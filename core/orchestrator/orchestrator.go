// Package orchestrator composes the cache, classifier, router, executor, and
// fallback responder into the tiered escalation pipeline. Every request gets
// an answer: failures below this layer are absorbed and converted into the
// next escalation step, and the fallback tier is total.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adalundhe/strata/core/cache"
	"github.com/adalundhe/strata/core/classifier"
	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/fallback"
	"github.com/adalundhe/strata/core/providers"
	"github.com/adalundhe/strata/core/request"
	"github.com/adalundhe/strata/core/router"
)

const defaultInvokeTimeout = 30 * time.Second

// Config configures the pipeline.
type Config struct {
	InvokeTimeout time.Duration `yaml:"invoke_timeout"`
}

// DefaultConfig returns the standard pipeline bounds.
func DefaultConfig() *Config {
	return &Config{InvokeTimeout: defaultInvokeTimeout}
}

// Deps carries the orchestrator's collaborators. Resources, Data, and
// Context may be nil; attempts then fail locally and the request settles on
// the fallback tier.
type Deps struct {
	Cache      *cache.Store
	Classifier *classifier.Classifier
	Selector   *router.Selector
	Executor   *executor.Executor
	Fallback   *fallback.Responder
	Resources  ResourceResolver
	Data       DataExecutor
	Context    ContextProvider
	Logger     *slog.Logger
}

// Orchestrator is the top-level request pipeline.
type Orchestrator struct {
	config    *Config
	cache     *cache.Store
	class     *classifier.Classifier
	selector  *router.Selector
	executor  *executor.Executor
	fallback  *fallback.Responder
	resources ResourceResolver
	data      DataExecutor
	context   ContextProvider
	logger    *slog.Logger
}

// New creates an Orchestrator, filling absent local components with their
// defaults.
func New(config *Config, deps Deps) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(nil)
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(nil)
	}
	if deps.Selector == nil {
		deps.Selector = router.New(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Executor == nil {
		deps.Executor = executor.New(nil, deps.Selector, nil, deps.Logger)
	}
	if deps.Fallback == nil {
		deps.Fallback = fallback.New()
	}

	return &Orchestrator{
		config:    config,
		cache:     deps.Cache,
		class:     deps.Classifier,
		selector:  deps.Selector,
		executor:  deps.Executor,
		fallback:  deps.Fallback,
		resources: deps.Resources,
		data:      deps.Data,
		context:   deps.Context,
		logger:    deps.Logger,
	}
}

// ProcessRequest runs one request through the escalation pipeline. It always
// returns a successful Result; the fallback tier is the terminal case.
func (o *Orchestrator) ProcessRequest(ctx context.Context, rawText string) *Result {
	req := request.New(rawText)
	escalationID := uuid.NewString()
	start := time.Now()

	logger := o.logger.With(
		"escalation_id", escalationID,
		"request", truncate(req.NormalizedKey, 80),
	)

	if result := o.checkCache(req, escalationID, start, logger); result != nil {
		return result
	}

	cls := o.class.Classify(req.NormalizedKey)
	decision := o.selector.Select(cls)
	logger.Info("classified",
		"tier", string(cls.Tier),
		"confidence", cls.Confidence,
		"resource", decision.ResourceName,
		"rationale", decision.Rationale,
		"elapsed", time.Since(start))

	var attempts []executor.AttemptRecord

	if cls.Tier != classifier.TierComplex {
		result, direct := o.tryDirect(ctx, req, cls, decision, escalationID, start, logger)
		if result != nil {
			return result
		}
		attempts = append(attempts, direct...)
	}

	result, retried := o.tryRetryLoop(ctx, req, cls, attempts, escalationID, start, logger)
	attempts = renumber(append(attempts, retried...))
	if result != nil {
		result.Attempts = attempts
		o.cacheResult(req, result)
		return result
	}

	return o.respondFallback(req, attempts, escalationID, start, logger)
}

// checkCache runs first for every request, against the full-answer
// namespace.
func (o *Orchestrator) checkCache(req request.Request, escalationID string, start time.Time, logger *slog.Logger) *Result {
	value, found := o.cache.Get(cache.NamespaceAnswers, req.NormalizedKey)
	if !found {
		logger.Debug("cache miss", "namespace", cache.NamespaceAnswers)
		return nil
	}

	cached, ok := value.(*Result)
	if !ok {
		logger.Debug("cache entry has unexpected shape; treating as miss")
		return nil
	}

	hit := *cached
	hit.FromCache = true
	hit.EscalationID = escalationID
	hit.Elapsed = time.Since(start)

	logger.Info("cache hit",
		"tier", string(hit.TierUsed),
		"outcome", "success",
		"elapsed", hit.Elapsed)
	return &hit
}

// tryDirect gives Simple and Medium tiers exactly one cheap attempt before
// they pay for iterative refinement.
func (o *Orchestrator) tryDirect(
	ctx context.Context,
	req request.Request,
	cls classifier.Classification,
	decision router.RoutingDecision,
	escalationID string,
	start time.Time,
	logger *slog.Logger,
) (*Result, []executor.AttemptRecord) {
	payload, err := o.attemptResolution(ctx, req, executor.Attempt{
		Index:        1,
		ResourceName: decision.ResourceName,
	})

	if err == nil {
		record := executor.AttemptRecord{
			AttemptIndex: 1,
			ResourceName: decision.ResourceName,
			Outcome:      executor.OutcomeSuccess,
		}
		result := &Result{
			Success:      true,
			TierUsed:     tierFor(cls.Tier),
			Payload:      payload,
			Attempts:     []executor.AttemptRecord{record},
			EscalationID: escalationID,
			Elapsed:      time.Since(start),
		}
		o.cacheResult(req, result)
		logger.Info("direct path resolved",
			"tier", string(result.TierUsed),
			"resource", decision.ResourceName,
			"outcome", "success",
			"elapsed", result.Elapsed)
		return result, nil
	}

	logger.Warn("direct path failed; escalating to retry loop",
		"tier", string(cls.Tier),
		"resource", decision.ResourceName,
		"outcome", "failure",
		"error", err.Error(),
		"elapsed", time.Since(start))

	return nil, []executor.AttemptRecord{{
		AttemptIndex: 1,
		ResourceName: decision.ResourceName,
		Outcome:      executor.OutcomeFailure,
		ErrorDetail:  err.Error(),
	}}
}

// tryRetryLoop drives the bounded refinement loop. Failures from the direct
// path are folded into each attempt's briefing so retries know the full
// failure history, not just the loop's own.
func (o *Orchestrator) tryRetryLoop(
	ctx context.Context,
	req request.Request,
	cls classifier.Classification,
	prior []executor.AttemptRecord,
	escalationID string,
	start time.Time,
	logger *slog.Logger,
) (*Result, []executor.AttemptRecord) {
	value, records, err := o.executor.Resolve(ctx, cls,
		func(attemptCtx context.Context, attempt executor.Attempt) (any, error) {
			if len(prior) > 0 {
				combined := make([]executor.AttemptRecord, 0, len(prior)+len(attempt.History))
				combined = append(combined, prior...)
				combined = append(combined, attempt.History...)
				attempt.Briefing = executor.BuildBriefing(renumber(combined), o.executor.BriefingLimit())
			}
			return o.attemptResolution(attemptCtx, req, attempt)
		})

	if err != nil {
		logger.Warn("retry loop exhausted; escalating to fallback",
			"tier", string(cls.Tier),
			"attempts", len(records),
			"outcome", "failure",
			"elapsed", time.Since(start))
		return nil, records
	}

	result := &Result{
		Success:      true,
		TierUsed:     tierFor(cls.Tier),
		Payload:      value,
		Attempts:     records,
		EscalationID: escalationID,
		Elapsed:      time.Since(start),
	}
	logger.Info("retry loop resolved",
		"tier", string(result.TierUsed),
		"attempts", len(records),
		"outcome", "success",
		"elapsed", result.Elapsed)
	return result, records
}

// respondFallback is the terminal transition. Fallback results are never
// cached: their purpose is last-resort availability, and caching one could
// mask a later genuine success.
func (o *Orchestrator) respondFallback(
	req request.Request,
	attempts []executor.AttemptRecord,
	escalationID string,
	start time.Time,
	logger *slog.Logger,
) *Result {
	response := o.fallback.Respond(req.NormalizedKey)

	result := &Result{
		Success:      true,
		TierUsed:     TierFallback,
		Payload:      response,
		Attempts:     attempts,
		EscalationID: escalationID,
		Elapsed:      time.Since(start),
	}

	logger.Info("fallback responded",
		"tier", string(TierFallback),
		"pattern", response.PatternID,
		"family", string(response.Family),
		"outcome", "success",
		"elapsed", result.Elapsed)
	return result
}

// attemptResolution performs one resolution attempt: schema context, provider
// call, candidate parsing, and realization against the data executor. Any
// error is absorbed by the caller into the next escalation step.
func (o *Orchestrator) attemptResolution(ctx context.Context, req request.Request, attempt executor.Attempt) (any, error) {
	if resolution, ok := o.tryCachedArtifact(ctx, req, attempt); ok {
		return resolution, nil
	}

	if o.resources == nil {
		return nil, errors.New("no compute resources configured")
	}
	if o.data == nil {
		return nil, errors.New("no data executor configured")
	}

	invoker, err := o.resources.Resolve(attempt.ResourceName)
	if err != nil {
		return nil, err
	}

	raw, err := invoker.Invoke(ctx, providers.Payload{
		Question:      req.RawText,
		SchemaContext: o.schemaContext(ctx, req),
		Briefing:      attempt.Briefing,
	}, o.config.InvokeTimeout)
	if err != nil {
		return nil, fmt.Errorf("resource call failed: %w", err)
	}

	candidate := ParseCandidate(raw)
	if candidate.Kind == CandidateUnstructured {
		return nil, fmt.Errorf("candidate not executable: %s", truncate(candidate.Raw, 60))
	}

	rows, err := o.data.Execute(ctx, candidate.SQL)
	if err != nil {
		return nil, fmt.Errorf("candidate %s rejected: %w", truncate(candidate.SQL, 60), err)
	}

	o.cache.Set(cache.NamespaceArtifacts, req.NormalizedKey, candidate.SQL)

	return &Resolution{SQL: candidate.SQL, Rows: rows}, nil
}

// tryCachedArtifact replays a previously generated candidate query before
// paying for a fresh provider call. Only the first attempt replays; once a
// replay has failed, later attempts must generate anew.
func (o *Orchestrator) tryCachedArtifact(ctx context.Context, req request.Request, attempt executor.Attempt) (*Resolution, bool) {
	if attempt.Index != 1 || o.data == nil {
		return nil, false
	}

	value, found := o.cache.Get(cache.NamespaceArtifacts, req.NormalizedKey)
	if !found {
		return nil, false
	}

	sqlText, ok := value.(string)
	if !ok {
		return nil, false
	}

	rows, err := o.data.Execute(ctx, sqlText)
	if err != nil {
		o.cache.Remove(cache.NamespaceArtifacts, req.NormalizedKey)
		return nil, false
	}
	return &Resolution{SQL: sqlText, Rows: rows}, true
}

func (o *Orchestrator) schemaContext(ctx context.Context, req request.Request) string {
	if o.context == nil {
		return ""
	}

	blob, err := o.context.RelevantContext(ctx, req.NormalizedKey)
	if err != nil {
		o.logger.Debug("schema context unavailable", "error", err.Error())
		return ""
	}
	return blob
}

// cacheResult writes a terminal success into the full-answer namespace. The
// stored copy is flagged as a fresh computation so later hits can mark
// themselves FromCache.
func (o *Orchestrator) cacheResult(req request.Request, result *Result) {
	stored := *result
	stored.FromCache = false
	o.cache.Set(cache.NamespaceAnswers, req.NormalizedKey, &stored)
}

// InvalidateCache removes matching entries from a namespace. Administrative.
func (o *Orchestrator) InvalidateCache(namespace, pattern string) int {
	return o.cache.Invalidate(namespace, pattern)
}

// CacheStats reports hit/miss accounting and per-namespace entry counts.
func (o *Orchestrator) CacheStats() *cache.Snapshot {
	return o.cache.Stats()
}

// renumber rewrites attempt indexes into one contiguous sequence after the
// direct-path and retry-loop histories are merged, so no two failures share
// a candidate number.
func renumber(records []executor.AttemptRecord) []executor.AttemptRecord {
	for i := range records {
		records[i].AttemptIndex = i + 1
	}
	return records
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
