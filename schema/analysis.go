package schema

import "time"

// VendorAnalysis is the scoring result for one vendor.
type VendorAnalysis struct {
	Vendor  Vendor      `json:"vendor"`
	Parts   []Part      `json:"parts"`
	Score   VendorScore `json:"score"`
	History History     `json:"history,omitempty"`
	Flags   []RiskFlag  `json:"risk_flags"`
}

// AvgLandedCost is the mean landed cost across the vendor's parts.
func (a VendorAnalysis) AvgLandedCost() float64 {
	if len(a.Parts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range a.Parts {
		sum += p.TotalLandedCost()
	}
	return sum / float64(len(a.Parts))
}

// AvgTotalTime is the mean lead-plus-transit time in days.
func (a VendorAnalysis) AvgTotalTime() float64 {
	if len(a.Parts) == 0 {
		return 0
	}
	var sum int
	for _, p := range a.Parts {
		sum += p.TotalTimeDays()
	}
	return float64(sum) / float64(len(a.Parts))
}

// TotalMonthlyCapacity sums monthly capacity across parts.
func (a VendorAnalysis) TotalMonthlyCapacity() int {
	total := 0
	for _, p := range a.Parts {
		total += p.MonthlyCapacity
	}
	return total
}

// HasHighRisk reports whether any flag is high severity.
func (a VendorAnalysis) HasHighRisk() bool {
	for _, f := range a.Flags {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// HasFlag reports whether a flag of type t is present.
func (a VendorAnalysis) HasFlag(t FlagType) bool {
	for _, f := range a.Flags {
		if f.Type == t {
			return true
		}
	}
	return false
}

// MaxSeverity returns the highest flag severity, or "" without flags.
func (a VendorAnalysis) MaxSeverity() Severity {
	var top Severity
	for _, f := range a.Flags {
		if f.Severity.Rank() > top.Rank() {
			top = f.Severity
		}
	}
	return top
}

// Summary is the executive digest of a scoring batch.
type Summary struct {
	Summary        string    `json:"summary"`
	Recommendation string    `json:"recommendation"`
	Insights       []string  `json:"insights,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}
