package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyJSON      bool
	historyLimit     int
	historyOlderThan time.Duration
	historyDryRun    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune recorded score snapshots",
}

var historyListCmd = &cobra.Command{
	Use:   "list <vendor-id>",
	Short: "List a vendor's recorded snapshots, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Output JSON instead of formatted table")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 12, "Most recent snapshots to show (0 for all)")
	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "Age cutoff (default from history.retention)")
	historyPruneCmd.Flags().BoolVar(&historyDryRun, "dry-run", false, "Report the cutoff without deleting")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	h, err := store.ListByVendor(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		out, _ := json.MarshalIndent(h, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	if len(h) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No snapshots recorded for %s.\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "MONTH\tCOMPUTED\tFINAL\tLANDED\tDAYS\tUNITS/MO\tMATURITY\n")
	fmt.Fprintf(w, "-----\t--------\t-----\t------\t----\t--------\t--------\n")
	for _, s := range h {
		fmt.Fprintf(w, "%s\t%s\t%.3f\t$%.2f\t%.1f\t%d\t%.3f (%s)\n",
			s.SnapshotDate.Format("2006-01"),
			s.ComputedAt.Format(time.RFC3339),
			s.FinalScore,
			s.Inputs.AvgLandedCost,
			s.Inputs.AvgTotalTime,
			s.Inputs.TotalCapacity,
			s.Inputs.RawMaturity,
			s.Inputs.Maturity.Path,
		)
	}
	return w.Flush()
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	age := cfg.History.Retention
	if historyOlderThan > 0 {
		age = historyOlderThan
	}
	if age <= 0 {
		return fmt.Errorf("retention must be positive, got %s", age)
	}
	cutoff := time.Now().UTC().Add(-age)

	if historyDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would delete snapshots computed before %s.\n", cutoff.Format(time.RFC3339))
		return nil
	}

	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.DeleteOlderThan(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	logger.Info("pruned snapshots", "deleted", n, "cutoff", cutoff)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshots computed before %s.\n", n, cutoff.Format(time.RFC3339))
	return nil
}
