package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/vendorscore/schema"
)

var weightsJSON bool

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the effective pillar weights",
	Long: `Prints the configured pillar weights after normalization, which is how
they are applied to every score.`,
	Args: cobra.NoArgs,
	RunE: runWeights,
}

func init() {
	weightsCmd.Flags().BoolVar(&weightsJSON, "json", false, "Output JSON instead of formatted table")
}

func runWeights(cmd *cobra.Command, args []string) error {
	w := cfg.Weights.ToWeights()

	if weightsJSON {
		out, _ := json.MarshalIndent(w, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PILLAR\tWEIGHT\n")
	fmt.Fprintf(tw, "------\t------\n")
	for _, p := range schema.Pillars {
		fmt.Fprintf(tw, "%s\t%.3f\n", p, w.Get(p))
	}
	return tw.Flush()
}
