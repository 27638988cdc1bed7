package score

import (
	"fmt"
	"time"

	"github.com/build-flow-labs/vendorscore/schema"
)

// RiskInput is everything a risk rule may look at for one vendor.
type RiskInput struct {
	Vendor  schema.Vendor
	Parts   []schema.Part
	Score   schema.VendorScore
	History schema.History
}

// Rule evaluates one risk condition. Rules never mutate their input.
type Rule func(in RiskInput, th Thresholds, now time.Time) []schema.RiskFlag

// Rules is the stock rule set in evaluation order. Order does not affect
// which flags are raised.
var Rules = []Rule{
	StaleDataRule,
	CostSpikeRule,
	DelayRule,
	CapacityRule,
	MaturityRule,
	VendorComplianceRule,
	PartComplianceRule,
}

// EvaluateRisk runs every rule and collects the flags.
func EvaluateRisk(in RiskInput, th Thresholds, now time.Time) []schema.RiskFlag {
	flags := []schema.RiskFlag{}
	for _, rule := range Rules {
		flags = append(flags, rule(in, th, now)...)
	}
	return flags
}

// StaleDataRule flags vendors whose data has not been verified recently.
// A vendor that was never verified is always high severity.
func StaleDataRule(in RiskInput, th Thresholds, now time.Time) []schema.RiskFlag {
	if in.Vendor.LastVerified.IsZero() {
		return []schema.RiskFlag{{
			Type:        schema.FlagStaleData,
			Severity:    schema.SeverityHigh,
			Description: "Vendor data has never been verified",
			Threshold:   float64(th.StaleDays),
		}}
	}

	days := in.Vendor.LastVerified.DaysSince(now)
	if days <= th.StaleDays {
		return nil
	}
	sev := schema.SeverityMedium
	if days > th.StaleHighDays {
		sev = schema.SeverityHigh
	}
	return []schema.RiskFlag{{
		Type:        schema.FlagStaleData,
		Severity:    sev,
		Description: fmt.Sprintf("Vendor data not verified for %d days", days),
		Value:       float64(days),
		Threshold:   float64(th.StaleDays),
	}}
}

// CostSpikeRule compares average landed cost with the previous snapshot.
// It needs at least two snapshots of history.
func CostSpikeRule(in RiskInput, th Thresholds, _ time.Time) []schema.RiskFlag {
	if len(in.History) < 2 {
		return nil
	}
	prev, ok := in.History.Previous(in.Score)
	if !ok {
		return nil
	}

	change := MonthOverMonth(in.Score.Inputs.AvgLandedCost, prev.Inputs.AvgLandedCost)
	if !change.Exceeds(th.CostSpike) {
		return nil
	}
	sev := schema.SeverityMedium
	if change.Exceeds(th.CostSpikeHigh) {
		sev = schema.SeverityHigh
	}

	desc := fmt.Sprintf("Cost increased %.1f%% from previous snapshot", change.Ratio*100)
	if change.Unbounded {
		desc = fmt.Sprintf("Cost rose from zero to $%.2f since previous snapshot", in.Score.Inputs.AvgLandedCost)
	}
	return []schema.RiskFlag{{
		Type:        schema.FlagCostSpike,
		Severity:    sev,
		Description: desc,
		Value:       change.Value(),
		Threshold:   th.CostSpike,
	}}
}

// DelayRule flags individual parts with long ocean or air transit.
// Ground freight is never flagged.
func DelayRule(in RiskInput, th Thresholds, _ time.Time) []schema.RiskFlag {
	var flags []schema.RiskFlag
	for _, p := range in.Parts {
		var limit, high int
		switch p.Mode() {
		case schema.ShippingOcean:
			limit, high = th.OceanTransitDays, th.OceanTransitHighDays
		case schema.ShippingAir:
			limit, high = th.AirTransitDays, th.AirTransitHighDays
		default:
			continue
		}
		if p.TransitDays <= limit {
			continue
		}
		sev := schema.SeverityMedium
		if p.TransitDays > high {
			sev = schema.SeverityHigh
		}
		flags = append(flags, schema.RiskFlag{
			Type:        schema.FlagDelayRisk,
			Severity:    sev,
			Description: fmt.Sprintf("Extended %s transit time: %d days for %s", p.Mode(), p.TransitDays, p.ComponentName),
			Value:       float64(p.TransitDays),
			Threshold:   float64(limit),
		})
	}
	return flags
}

// CapacityRule flags vendors whose summed monthly capacity is low.
func CapacityRule(in RiskInput, th Thresholds, _ time.Time) []schema.RiskFlag {
	total := 0
	for _, p := range in.Parts {
		if p.MonthlyCapacity > 0 {
			total += p.MonthlyCapacity
		}
	}
	if total >= th.MinCapacity {
		return nil
	}
	sev := schema.SeverityMedium
	if total < th.MinCapacityHigh {
		sev = schema.SeverityHigh
	}
	return []schema.RiskFlag{{
		Type:        schema.FlagCapacityShortfall,
		Severity:    sev,
		Description: fmt.Sprintf("Limited capacity: %s units/month", formatCount(total)),
		Value:       float64(total),
		Threshold:   float64(th.MinCapacity),
	}}
}

// MaturityRule flags vendors with a low normalized maturity pillar.
func MaturityRule(in RiskInput, th Thresholds, _ time.Time) []schema.RiskFlag {
	m := in.Score.MaturityScore
	if m >= th.MinMaturity {
		return nil
	}
	sev := schema.SeverityMedium
	if m < th.MinMaturityHigh {
		sev = schema.SeverityHigh
	}
	return []schema.RiskFlag{{
		Type:        schema.FlagMaturityRisk,
		Severity:    sev,
		Description: fmt.Sprintf("Low maturity score: %.1f%%", m*100),
		Value:       m,
		Threshold:   th.MinMaturity,
	}}
}
