package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adalundhe/strata/core/orchestrator"
)

const batchDefaultWorkers = 4

var flagBatchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve a file of questions, one per line",
	Long: `Resolve every question in a file through the escalation pipeline.
Questions run concurrently; results are printed in input order. Use "-" to
read questions from stdin.

Examples:
  strata batch questions.txt
  strata batch --workers 8 --json questions.txt
  cat questions.txt | strata batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVarP(&flagBatchWorkers, "workers", "w", batchDefaultWorkers, "Concurrent questions in flight")
}

func runBatch(cmd *cobra.Command, args []string) error {
	questions, err := readQuestions(args[0])
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions in %s", args[0])
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	workers := flagBatchWorkers
	if workers <= 0 {
		workers = batchDefaultWorkers
	}

	results := make([]*orchestrator.Result, len(questions))

	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(workers)
	for i, question := range questions {
		group.Go(func() error {
			results[i] = rt.orch.ProcessRequest(ctx, question)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, result := range results {
		if !flagJSON {
			fmt.Fprintf(out, "--- %s\n", questions[i])
		}
		if err := writeResult(out, result); err != nil {
			return err
		}
	}

	return nil
}

func readQuestions(path string) ([]string, error) {
	file := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		file = f
	}

	var questions []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	return questions, scanner.Err()
}
