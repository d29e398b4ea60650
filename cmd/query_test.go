package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/adalundhe/strata/core/database"
	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/fallback"
	"github.com/adalundhe/strata/core/orchestrator"
)

func TestWriteResultTextResolution(t *testing.T) {
	result := &orchestrator.Result{
		Success:  true,
		TierUsed: orchestrator.TierSimple,
		Payload: &orchestrator.Resolution{
			SQL: "select count(*) from customers",
			Rows: &database.ResultSet{
				Columns: []string{"customer_count"},
				Rows:    [][]any{{int64(42)}},
			},
		},
		Attempts: []executor.AttemptRecord{
			{AttemptIndex: 1, ResourceName: "fast", Outcome: executor.OutcomeSuccess},
		},
		Elapsed: 125 * time.Millisecond,
	}

	var sb strings.Builder
	writeResultText(&sb, result)
	out := sb.String()

	for _, want := range []string{"tier: simple", "attempts: 1", "select count(*) from customers", "customer_count", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteResultTextFallback(t *testing.T) {
	result := &orchestrator.Result{
		Success:  true,
		TierUsed: orchestrator.TierFallback,
		Payload: fallback.Response{
			Success:   true,
			PatternID: "count-how-many",
			Family:    fallback.FamilyCount,
			Query:     "SELECT COUNT(*) AS customer_count FROM customers;",
			Entity:    "customer",
		},
	}

	var sb strings.Builder
	writeResultText(&sb, result)
	out := sb.String()

	if !strings.Contains(out, "fallback pattern") {
		t.Errorf("output missing fallback marker:\n%s", out)
	}
	if !strings.Contains(out, "SELECT COUNT(*)") {
		t.Errorf("output missing fallback query:\n%s", out)
	}
}

func TestBuildOutputIncludesHistory(t *testing.T) {
	result := &orchestrator.Result{
		Success:  true,
		TierUsed: orchestrator.TierComplex,
		Payload:  &orchestrator.Resolution{SQL: "select 1"},
		Attempts: []executor.AttemptRecord{
			{AttemptIndex: 1, ResourceName: "powerful", Outcome: executor.OutcomeFailure, ErrorDetail: "syntax error"},
			{AttemptIndex: 2, ResourceName: "powerful", Outcome: executor.OutcomeSuccess},
		},
		Elapsed: time.Second,
	}

	out := buildOutput(result)

	if out.Attempts != 2 {
		t.Errorf("attempts: got %d, want 2", out.Attempts)
	}
	if len(out.History) != 2 {
		t.Fatalf("history: got %d entries, want 2", len(out.History))
	}
	if out.History[0].Error != "syntax error" {
		t.Errorf("history[0].Error: got %q", out.History[0].Error)
	}
	if out.SQL != "select 1" {
		t.Errorf("sql: got %q", out.SQL)
	}
}
