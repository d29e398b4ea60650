package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adalundhe/strata/core/database"
	"github.com/adalundhe/strata/core/fallback"
	"github.com/adalundhe/strata/core/orchestrator"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Resolve a natural language question against the database",
	Long: `Resolve a natural language question through the escalation pipeline.

Examples:
  strata query "How many customers are there?"
  strata query --json "top 10 customers by total order value"
  strata query --config strata.yaml "average order value per region"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	question := strings.Join(args, " ")
	result := rt.orch.ProcessRequest(context.Background(), question)

	return writeResult(cmd.OutOrStdout(), result)
}

// queryOutput is the JSON-facing shape of a pipeline result.
type queryOutput struct {
	Tier         string              `json:"tier"`
	FromCache    bool                `json:"from_cache"`
	EscalationID string              `json:"escalation_id"`
	Elapsed      string              `json:"elapsed"`
	Attempts     int                 `json:"attempts"`
	SQL          string              `json:"sql,omitempty"`
	Columns      []string            `json:"columns,omitempty"`
	Rows         [][]any             `json:"rows,omitempty"`
	Truncated    bool                `json:"truncated,omitempty"`
	Fallback     *fallbackOutput     `json:"fallback,omitempty"`
	History      []attemptOutput     `json:"history,omitempty"`
}

type fallbackOutput struct {
	Pattern string `json:"pattern"`
	Family  string `json:"family"`
	Query   string `json:"query"`
	Entity  string `json:"entity"`
}

type attemptOutput struct {
	Attempt  int    `json:"attempt"`
	Resource string `json:"resource"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
}

func writeResult(w io.Writer, result *orchestrator.Result) error {
	if flagJSON {
		return json.NewEncoder(w).Encode(buildOutput(result))
	}
	writeResultText(w, result)
	return nil
}

func buildOutput(result *orchestrator.Result) queryOutput {
	out := queryOutput{
		Tier:         string(result.TierUsed),
		FromCache:    result.FromCache,
		EscalationID: result.EscalationID,
		Elapsed:      result.Elapsed.Round(time.Millisecond).String(),
		Attempts:     len(result.Attempts),
	}

	for _, record := range result.Attempts {
		out.History = append(out.History, attemptOutput{
			Attempt:  record.AttemptIndex,
			Resource: record.ResourceName,
			Outcome:  string(record.Outcome),
			Error:    record.ErrorDetail,
		})
	}

	switch payload := result.Payload.(type) {
	case *orchestrator.Resolution:
		out.SQL = payload.SQL
		if payload.Rows != nil {
			out.Columns = payload.Rows.Columns
			out.Rows = payload.Rows.Rows
			out.Truncated = payload.Rows.Truncated
		}
	case fallback.Response:
		out.Fallback = &fallbackOutput{
			Pattern: payload.PatternID,
			Family:  string(payload.Family),
			Query:   payload.Query,
			Entity:  payload.Entity,
		}
	}

	return out
}

func writeResultText(w io.Writer, result *orchestrator.Result) {
	cached := ""
	if result.FromCache {
		cached = "  (cached)"
	}
	fmt.Fprintf(w, "tier: %s  attempts: %d  elapsed: %s%s\n",
		result.TierUsed, len(result.Attempts), result.Elapsed.Round(time.Millisecond), cached)

	switch payload := result.Payload.(type) {
	case *orchestrator.Resolution:
		fmt.Fprintf(w, "sql: %s\n", payload.SQL)
		writeRows(w, payload.Rows)
	case fallback.Response:
		fmt.Fprintf(w, "fallback pattern: %s (%s)\n", payload.PatternID, payload.Family)
		fmt.Fprintf(w, "sql: %s\n", payload.Query)
	}
}

func writeRows(w io.Writer, rows *database.ResultSet) {
	if rows == nil || len(rows.Columns) == 0 {
		return
	}

	fmt.Fprintln(w, strings.Join(rows.Columns, "\t"))
	for _, row := range rows.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprintf("%v", cell)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if rows.Truncated {
		fmt.Fprintln(w, "(results truncated)")
	}
}
