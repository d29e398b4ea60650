package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
	Long: `Inspect and manage the result cache.

The cache lives in process memory: these commands act on the cache of the
current invocation only, so they are most useful inside a long-lived process
or a batch run. A standalone "strata cache stats" starts from an empty
cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show this process's cache hit/miss accounting and entry counts",
	RunE:  runCacheStats,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <namespace> <pattern>",
	Short: "Remove this process's cached entries matching a glob pattern",
	Long: `Remove entries whose keys match a glob pattern from one namespace of the
current process's cache.

Examples:
  strata cache invalidate answers "*customers*"
  strata cache invalidate artifacts "*"`,
	Args: cobra.ExactArgs(2),
	RunE: runCacheInvalidate,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	stats := rt.orch.CacheStats()
	out := cmd.OutOrStdout()

	if flagJSON {
		return json.NewEncoder(out).Encode(stats)
	}

	fmt.Fprintf(out, "hits: %d  misses: %d  sets: %d  evictions: %d  hit rate: %.2f\n",
		stats.Hits, stats.Misses, stats.Sets, stats.Evictions, stats.HitRate)
	for namespace, entries := range stats.Entries {
		fmt.Fprintf(out, "%s: %d entries\n", namespace, entries)
	}
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	removed := rt.orch.InvalidateCache(args[0], args[1])
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries from %s\n", removed, args[0])
	return nil
}
