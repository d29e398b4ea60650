package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/strata/core/cache"
	"github.com/adalundhe/strata/core/database"
	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/fallback"
	"github.com/adalundhe/strata/core/providers"
	"github.com/adalundhe/strata/core/router"
)

const countEnvelope = `{"sql": "select count(*) from customers", "reasoning": "count rows"}`

type scriptedInvoker struct {
	mu       sync.Mutex
	calls    int
	payloads []providers.Payload
	respond  func(call int, payload providers.Payload) (string, error)
}

func (s *scriptedInvoker) Name() string { return "scripted" }

func (s *scriptedInvoker) Invoke(_ context.Context, payload providers.Payload, _ time.Duration) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.payloads = append(s.payloads, payload)
	s.mu.Unlock()
	return s.respond(call, payload)
}

func (s *scriptedInvoker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedInvoker) payloadAt(i int) providers.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[i]
}

type fakeData struct {
	mu       sync.Mutex
	executed []string
	failures map[string]error
}

func (f *fakeData) failWith(query string, err error) {
	f.mu.Lock()
	if f.failures == nil {
		f.failures = make(map[string]error)
	}
	f.failures[query] = err
	f.mu.Unlock()
}

func (f *fakeData) Execute(_ context.Context, query string) (*database.ResultSet, error) {
	f.mu.Lock()
	f.executed = append(f.executed, query)
	err := f.failures[query]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &database.ResultSet{
		Columns: []string{"customer_count"},
		Rows:    [][]any{{int64(3)}},
	}, nil
}

func (f *fakeData) executedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.executed)
}

type fixedContext struct{ blob string }

func (f fixedContext) RelevantContext(context.Context, string) (string, error) {
	return f.blob, nil
}

func newTestOrchestrator(invoker *scriptedInvoker) (*Orchestrator, *fakeData) {
	registry := providers.NewRegistry()
	registry.Register("fast", invoker)
	registry.Register("powerful", invoker)

	data := &fakeData{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	selector := router.New(nil)

	orch := New(nil, Deps{
		Selector:  selector,
		Executor:  executor.New(&executor.Config{MaxAttempts: 3, AttemptTimeout: time.Second}, selector, nil, logger),
		Fallback:  fallback.New(),
		Resources: registry,
		Data:      data,
		Context:   fixedContext{blob: "TABLE customers (id INTEGER, name TEXT)"},
		Logger:    logger,
	})
	return orch, data
}

func TestSimpleRequestResolvesDirectlyThenHitsCache(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return countEnvelope, nil
	}}
	orch, data := newTestOrchestrator(invoker)

	first := orch.ProcessRequest(context.Background(), "How many customers are there?")
	require.True(t, first.Success)
	assert.Equal(t, TierSimple, first.TierUsed)
	assert.False(t, first.FromCache)
	assert.NotEmpty(t, first.EscalationID)
	require.Len(t, first.Attempts, 1)
	assert.Equal(t, executor.OutcomeSuccess, first.Attempts[0].Outcome)
	assert.Equal(t, "fast", first.Attempts[0].ResourceName)

	resolution, ok := first.Payload.(*Resolution)
	require.True(t, ok)
	assert.Equal(t, "select count(*) from customers", resolution.SQL)
	require.NotNil(t, resolution.Rows)
	assert.Equal(t, 1, data.executedCount())

	second := orch.ProcessRequest(context.Background(), "  how MANY customers   are there? ")
	require.True(t, second.Success)
	assert.True(t, second.FromCache)
	assert.Equal(t, TierSimple, second.TierUsed)
	assert.NotEqual(t, first.EscalationID, second.EscalationID)
	assert.Equal(t, 1, invoker.callCount(), "cache hit must not invoke a resource")
}

func TestDirectFailureEscalatesIntoRetryLoop(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(call int, _ providers.Payload) (string, error) {
		switch call {
		case 1:
			return "", errors.New("rate limited")
		case 2:
			return "I cannot help with that request.", nil
		default:
			return countEnvelope, nil
		}
	}}
	orch, _ := newTestOrchestrator(invoker)

	result := orch.ProcessRequest(context.Background(), "How many customers are there?")

	require.True(t, result.Success)
	assert.Equal(t, TierSimple, result.TierUsed)
	require.Len(t, result.Attempts, 3)
	assert.Equal(t, executor.OutcomeFailure, result.Attempts[0].Outcome)
	assert.Equal(t, executor.OutcomeFailure, result.Attempts[1].Outcome)
	assert.Equal(t, executor.OutcomeSuccess, result.Attempts[2].Outcome)

	// The merged history is one contiguous sequence.
	for i, record := range result.Attempts {
		assert.Equal(t, i+1, record.AttemptIndex)
	}

	// The third call's briefing carries both prior failures in order, each
	// under its own candidate number.
	briefing := invoker.payloadAt(2).Briefing
	rateLimited := strings.Index(briefing, "rate limited")
	notExecutable := strings.Index(briefing, "candidate not executable")
	require.GreaterOrEqual(t, rateLimited, 0)
	require.Greater(t, notExecutable, rateLimited)
	assert.Equal(t, 1, strings.Count(briefing, "previous candidate 1 "))
	assert.Equal(t, 1, strings.Count(briefing, "previous candidate 2 "))
}

func TestExhaustionSettlesOnFallbackAndIsNeverCached(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return "", errors.New("provider unavailable")
	}}
	orch, _ := newTestOrchestrator(invoker)

	first := orch.ProcessRequest(context.Background(), "How many customers do we have?")

	require.True(t, first.Success, "the pipeline is total even when every attempt fails")
	assert.Equal(t, TierFallback, first.TierUsed)
	assert.Len(t, first.Attempts, 4, "one direct attempt plus three retries")

	response, ok := first.Payload.(fallback.Response)
	require.True(t, ok)
	assert.Equal(t, fallback.FamilyCount, response.Family)
	assert.NotEmpty(t, response.Query)

	callsAfterFirst := invoker.callCount()
	second := orch.ProcessRequest(context.Background(), "How many customers do we have?")
	assert.False(t, second.FromCache, "fallback results must never be cached")
	assert.Equal(t, TierFallback, second.TierUsed)
	assert.Greater(t, invoker.callCount(), callsAfterFirst)
}

func TestComplexTierSkipsDirectPath(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return countEnvelope, nil
	}}
	orch, _ := newTestOrchestrator(invoker)

	result := orch.ProcessRequest(context.Background(),
		"compute the total revenue and the average order value per region sorted by revenue descending")

	require.True(t, result.Success)
	assert.Equal(t, TierComplex, result.TierUsed)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "powerful", result.Attempts[0].ResourceName)
}

func TestKnownCandidateReplaysWithoutProviderCall(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return countEnvelope, nil
	}}
	orch, data := newTestOrchestrator(invoker)

	first := orch.ProcessRequest(context.Background(), "How many customers are there?")
	require.True(t, first.Success)
	require.Equal(t, 1, invoker.callCount())

	removed := orch.InvalidateCache(cache.NamespaceAnswers, "*")
	require.Equal(t, 1, removed)

	second := orch.ProcessRequest(context.Background(), "How many customers are there?")
	require.True(t, second.Success)
	assert.False(t, second.FromCache)
	assert.Equal(t, 1, invoker.callCount(), "replayed candidate must not invoke a resource")
	assert.Equal(t, 2, data.executedCount())
}

func TestFailedReplayEvictsStoredCandidate(t *testing.T) {
	staleSQL := "select count(*) from customers"
	invoker := &scriptedInvoker{respond: func(call int, _ providers.Payload) (string, error) {
		if call == 1 {
			return countEnvelope, nil
		}
		return "", errors.New("provider unavailable")
	}}
	orch, data := newTestOrchestrator(invoker)

	// the key carries glob metacharacters, so eviction must be an exact
	// removal rather than a pattern match
	question := "how many customers [urgent]"

	first := orch.ProcessRequest(context.Background(), question)
	require.True(t, first.Success)
	require.Equal(t, 1, invoker.callCount())

	orch.InvalidateCache(cache.NamespaceAnswers, "*")
	data.failWith(staleSQL, errors.New("no such column"))

	second := orch.ProcessRequest(context.Background(), question)
	require.True(t, second.Success)
	assert.Equal(t, TierFallback, second.TierUsed, "stale candidate must not resolve the request")

	// the database recovers, but the bad candidate is gone: no replay
	// succeeds, so the request settles on fallback rather than silently
	// re-running the evicted query
	data.failWith(staleSQL, nil)

	third := orch.ProcessRequest(context.Background(), question)
	require.True(t, third.Success)
	assert.Equal(t, TierFallback, third.TierUsed, "evicted candidate must not be replayed")
}

func TestSchemaContextReachesProvider(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return countEnvelope, nil
	}}
	orch, _ := newTestOrchestrator(invoker)

	result := orch.ProcessRequest(context.Background(), "How many customers are there?")

	require.True(t, result.Success)
	assert.Contains(t, invoker.payloadAt(0).SchemaContext, "TABLE customers")
}

func TestMissingResourcesDegradeToFallback(t *testing.T) {
	orch := New(nil, Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	result := orch.ProcessRequest(context.Background(), "show all the products")

	require.True(t, result.Success)
	assert.Equal(t, TierFallback, result.TierUsed)
}

func TestConcurrentIdenticalRequestsSettle(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return countEnvelope, nil
	}}
	orch, _ := newTestOrchestrator(invoker)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = orch.ProcessRequest(context.Background(), "How many customers are there?")
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		require.True(t, result.Success, fmt.Sprintf("request %d", i))
		assert.Equal(t, TierSimple, result.TierUsed)
	}

	settled := orch.ProcessRequest(context.Background(), "How many customers are there?")
	assert.True(t, settled.FromCache)
}

func TestCacheStatsAccounting(t *testing.T) {
	invoker := &scriptedInvoker{respond: func(int, providers.Payload) (string, error) {
		return countEnvelope, nil
	}}
	orch, _ := newTestOrchestrator(invoker)

	orch.ProcessRequest(context.Background(), "How many customers are there?")
	orch.ProcessRequest(context.Background(), "How many customers are there?")

	stats := orch.CacheStats()
	assert.GreaterOrEqual(t, stats.Hits, int64(1))
	assert.GreaterOrEqual(t, stats.Misses, int64(1))
}
