package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/dashboard"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/pipeline"
	"github.com/build-flow-labs/vendorscore/schema"
)

var (
	scoreJSON      bool
	scoreRecord    bool
	scoreSort      string
	scoreLimit     int
	scoreRegion    string
	scoreComponent string
	scoreMode      string
	scoreWeights   map[string]string
	scoreBrief     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank vendors from the configured source",
	Long: `Fetches vendors and parts, scores every vendor with at least one part and
prints the ranking with risk flags and an executive summary.

Use --weight to override pillar weights for this run, e.g.
  --weight total_cost=0.5 --weight capacity=0.2
Unset pillars keep their configured weight; the result is renormalized.
Use --record to store the scores as a snapshot for month-over-month checks.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.BoolVar(&scoreJSON, "json", false, "Output JSON instead of formatted table")
	f.BoolVar(&scoreRecord, "record", false, "Persist scores to the snapshot store")
	f.StringVar(&scoreSort, "sort", dashboard.SortFinalScore, "Sort by final_score, total_cost, total_time, maturity or capacity")
	f.IntVar(&scoreLimit, "limit", dashboard.DefaultLimit, "Maximum vendors to show (at most 100)")
	f.StringVar(&scoreRegion, "region", "", "Only vendors in this region")
	f.StringVar(&scoreComponent, "component", "", "Only vendors supplying a matching component")
	f.StringVar(&scoreMode, "mode", "", "Only vendors shipping by this mode")
	f.StringToStringVar(&scoreWeights, "weight", nil, "Pillar weight override, pillar=value (repeatable)")
	f.BoolVar(&scoreBrief, "brief", false, "Omit the risk flag details under the table")
}

type scoreOutput struct {
	Vendors []schema.VendorAnalysis `json:"vendors"`
	Summary schema.Summary          `json:"executive_summary"`
	Weights schema.Weights          `json:"weights"`
	Record  int                     `json:"snapshots_recorded"`
}

func runScore(cmd *cobra.Command, args []string) error {
	if !dashboard.ValidSort(scoreSort) {
		return fmt.Errorf("unknown sort field %q", scoreSort)
	}

	runner, closeFn, err := newRunner(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	opts := pipeline.Options{Record: scoreRecord}
	if len(scoreWeights) > 0 {
		w, err := weightOverrides(runner.Engine().Weights(), scoreWeights)
		if err != nil {
			return err
		}
		opts.Weights = &w
	}

	res, err := runner.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	idx := dashboard.NewIndex(cfg.Thresholds.StaleDays)
	weights := runner.Engine().Weights()
	if opts.Weights != nil {
		weights = opts.Weights.Normalized()
	}
	idx.Replace(res.Analyses, res.Summary, weights, res.Summary.GeneratedAt)
	entries := idx.List(dashboard.ListOptions{
		Region:    scoreRegion,
		Component: scoreComponent,
		Mode:      scoreMode,
		SortField: scoreSort,
		Limit:     scoreLimit,
	})

	if scoreJSON {
		out := scoreOutput{Summary: res.Summary, Weights: weights, Record: res.Recorded}
		out.Vendors = make([]schema.VendorAnalysis, 0, len(entries))
		for _, e := range entries {
			a, err := idx.Get(e.VendorID)
			if err != nil {
				return err
			}
			out.Vendors = append(out.Vendors, a)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No vendors with parts matched.")
	} else {
		printRanking(out, entries)
		if !scoreBrief {
			printFlags(out, idx, entries)
		}
	}
	printSummary(out, res.Summary, weights)
	if res.Recorded > 0 {
		fmt.Fprintf(out, "\nRecorded %d snapshots.\n", res.Recorded)
	}
	return nil
}

// weightOverrides applies pillar=value pairs on top of base.
func weightOverrides(base schema.Weights, pairs map[string]string) (schema.Weights, error) {
	var u schema.WeightsUpdate
	for k, v := range pairs {
		p, ok := schema.ParsePillar(k)
		if !ok {
			return schema.Weights{}, fmt.Errorf("unknown pillar %q", k)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return schema.Weights{}, fmt.Errorf("weight for %s must be a non-negative number", k)
		}
		u.Set(p, f)
	}
	return base.Apply(u), nil
}

func printRanking(out io.Writer, entries []dashboard.Entry) {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tVENDOR\tREGION\tFINAL\tCOST\tTIME\tMATURITY\tCAPACITY\tLANDED\tDAYS\tUNITS/MO\tRISK\n")
	fmt.Fprintf(w, "----\t------\t------\t-----\t----\t----\t--------\t--------\t------\t----\t--------\t----\n")
	for _, e := range entries {
		risk := "-"
		if e.FlagCount > 0 {
			risk = fmt.Sprintf("%d %s", e.FlagCount, e.MaxSeverity)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%.2f\t%.2f\t%.2f\t%.2f\t$%.2f\t%.1f\t%s\t%s\n",
			e.Rank, e.Name, e.Region, e.FinalScore,
			e.Pillars[string(schema.PillarCost)],
			e.Pillars[string(schema.PillarTime)],
			e.Pillars[string(schema.PillarMaturity)],
			e.Pillars[string(schema.PillarCapacity)],
			e.AvgLandedCost, e.AvgTotalTime,
			p.Sprintf("%d", e.TotalCapacity),
			risk,
		)
	}
	w.Flush()
}

func printFlags(out io.Writer, idx *dashboard.Index, entries []dashboard.Entry) {
	header := false
	for _, e := range entries {
		if e.FlagCount == 0 {
			continue
		}
		a, err := idx.Get(e.VendorID)
		if err != nil {
			continue
		}
		if !header {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "RISK FLAGS")
			fmt.Fprintln(out, strings.Repeat("─", 60))
			header = true
		}
		fmt.Fprintf(out, "%s\n", a.Vendor.Name)
		for _, f := range a.Flags {
			fmt.Fprintf(out, "  [%s] %s: %s\n", f.Severity, f.Type, f.Description)
		}
	}
}

func printSummary(out io.Writer, s schema.Summary, w schema.Weights) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "EXECUTIVE SUMMARY")
	fmt.Fprintln(out, strings.Repeat("─", 60))
	for _, line := range s.Insights {
		fmt.Fprintf(out, "  - %s\n", line)
	}
	if len(s.Insights) == 0 {
		fmt.Fprintf(out, "  %s\n", s.Summary)
	}
	fmt.Fprintf(out, "\n  %s\n", s.Recommendation)
	fmt.Fprintf(out, "\n  Weights: cost %.2f, time %.2f, maturity %.2f, capacity %.2f\n",
		w.Cost, w.Time, w.Maturity, w.Capacity)
}
