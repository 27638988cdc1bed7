package score

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/build-flow-labs/vendorscore/schema"
)

const (
	noDataSummary        = "No vendor data available for analysis."
	noDataRecommendation = "Insufficient data for recommendations."

	// Final-score gap between the top two vendors that makes a strong leader.
	strongLeaderGap = 0.15
	// Top performers must average below this share of the overall mean cost.
	costLeaderRatio = 0.9
	costLeaderCount = 3
)

// Summarize builds an executive summary from ranked analyses (best first).
// GeneratedAt is left unset; Engine.Summarize stamps it.
func Summarize(analyses []schema.VendorAnalysis) schema.Summary {
	if len(analyses) == 0 {
		return schema.Summary{
			Summary:        noDataSummary,
			Recommendation: noDataRecommendation,
		}
	}

	top := analyses[0]
	total := len(analyses)
	var insights []string

	insights = append(insights, fmt.Sprintf("Top Performer: %s leads with %.1f%% score",
		top.Vendor.Name, top.Score.FinalScore*100))

	highRisk := 0
	stale := 0
	capacity := 0
	var costSum float64
	for _, a := range analyses {
		if a.HasHighRisk() {
			highRisk++
		}
		if a.HasFlag(schema.FlagStaleData) {
			stale++
		}
		capacity += a.TotalMonthlyCapacity()
		costSum += a.AvgLandedCost()
	}
	if highRisk > 0 {
		insights = append(insights, fmt.Sprintf("Risk Alert: %d/%d vendors flagged with high-risk issues", highRisk, total))
	}

	avgCost := costSum / float64(total)
	leaders := analyses[:min(costLeaderCount, total)]
	var leaderSum float64
	for _, a := range leaders {
		leaderSum += a.AvgLandedCost()
	}
	avgLeaderCost := leaderSum / float64(len(leaders))
	if avgLeaderCost < avgCost*costLeaderRatio {
		insights = append(insights, fmt.Sprintf("Cost Efficiency: Top performers average 10%%+ lower costs ($%.2f vs $%.2f)",
			avgLeaderCost, avgCost))
	}

	insights = append(insights, fmt.Sprintf("Supply Capacity: %s total units/month across all vendors", formatCount(capacity)))

	if stale > 0 {
		insights = append(insights, fmt.Sprintf("Data Quality: %d/%d vendors need data refresh", stale, total))
	}

	return schema.Summary{
		Summary:        strings.Join(insights, " • "),
		Recommendation: recommend(analyses),
		Insights:       insights,
	}
}

func recommend(analyses []schema.VendorAnalysis) string {
	top := analyses[0]
	if len(analyses) == 1 {
		return fmt.Sprintf("Single Option: Proceed with %s while developing alternative suppliers.", top.Vendor.Name)
	}
	second := analyses[1]
	if top.Score.FinalScore-second.Score.FinalScore > strongLeaderGap {
		return fmt.Sprintf("Strong Leader: Prioritize %s for primary sourcing given significant performance advantage.", top.Vendor.Name)
	}
	return fmt.Sprintf("Competitive Landscape: Consider diversified sourcing between %s and %s to balance performance and risk.",
		top.Vendor.Name, second.Vendor.Name)
}

// Summarize is the package-level Summarize stamped with the engine clock.
func (e *Engine) Summarize(analyses []schema.VendorAnalysis) schema.Summary {
	s := Summarize(analyses)
	s.GeneratedAt = e.now()
	return s
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
