package orchestrator

import (
	"context"
	"time"

	"github.com/adalundhe/strata/core/classifier"
	"github.com/adalundhe/strata/core/database"
	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/providers"
)

// ResolutionTier names the escalation step that produced a result.
type ResolutionTier string

const (
	TierSimple   ResolutionTier = "simple"
	TierMedium   ResolutionTier = "medium"
	TierComplex  ResolutionTier = "complex"
	TierFallback ResolutionTier = "fallback"
)

func tierFor(t classifier.Tier) ResolutionTier {
	switch t {
	case classifier.TierMedium:
		return TierMedium
	case classifier.TierComplex:
		return TierComplex
	default:
		return TierSimple
	}
}

// Result is the only object returned to callers. It is immutable once
// constructed; cache hits return a copy flagged FromCache.
type Result struct {
	Success      bool
	TierUsed     ResolutionTier
	Payload      any
	Attempts     []executor.AttemptRecord
	FromCache    bool
	EscalationID string
	Elapsed      time.Duration
}

// Resolution is the payload for tiers that realized rows from a candidate
// query.
type Resolution struct {
	SQL  string
	Rows *database.ResultSet
}

// DataExecutor validates and realizes candidate queries. Failures feed the
// retry loop.
type DataExecutor interface {
	Execute(ctx context.Context, query string) (*database.ResultSet, error)
}

// ContextProvider supplies the opaque schema context blob for a request.
type ContextProvider interface {
	RelevantContext(ctx context.Context, normalized string) (string, error)
}

// ResourceResolver maps opaque resource names to compute invokers.
type ResourceResolver interface {
	Resolve(resourceName string) (providers.Invoker, error)
}
