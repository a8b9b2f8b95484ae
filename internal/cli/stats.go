package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	Long: `Show in-memory server statistics: generation timing and token usage,
sink append timing and resolution outcome counts.

Output is a readable table on a terminal and JSON otherwise.

Examples:
  closeout stats
  closeout stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "always print JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := apiClient.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if statsJSON || !isTerminal(out) {
		return printJSON(out, stats)
	}
	printServerStats(out, stats)
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(w io.Writer, stats *metrics.Snapshot) {
	fmt.Fprintf(w, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	if stats.Summarize != nil {
		fmt.Fprintf(w, "\nSummarize:\n")
		printOpStats(w, stats.Summarize)
		printTokenStats(w, stats.Summarize)
	}

	if stats.Resolve != nil {
		fmt.Fprintf(w, "\nResolve:\n")
		printOpStats(w, stats.Resolve)
		printTokenStats(w, stats.Resolve)
	}

	if stats.SinkAppend != nil {
		fmt.Fprintf(w, "\nSink Append:\n")
		printOpStats(w, stats.SinkAppend)
	}

	if len(stats.Outcomes) > 0 {
		fmt.Fprintf(w, "\nOutcomes:\n")
		names := make([]string, 0, len(stats.Outcomes))
		for name := range stats.Outcomes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-15s %d\n", name, stats.Outcomes[name])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgInputTokens)
	}
	if op.MinInputTokens != nil && op.MaxInputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinInputTokens, *op.MaxInputTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgOutputTokens)
	}
	if op.MinOutputTokens != nil && op.MaxOutputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinOutputTokens, *op.MaxOutputTokens)
	}
	fmt.Fprintln(w)
}
