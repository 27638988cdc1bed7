package schema

// Severity grades a risk flag.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: low 1, medium 2, high 3, unknown 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// FlagType identifies the rule that raised a flag.
type FlagType string

const (
	FlagStaleData         FlagType = "stale_data"
	FlagCostSpike         FlagType = "cost_spike"
	FlagDelayRisk         FlagType = "delay_risk"
	FlagCapacityShortfall FlagType = "capacity_shortfall"
	FlagMaturityRisk      FlagType = "maturity_risk"
	FlagCompliance        FlagType = "compliance_risk"
	FlagAuditRisk         FlagType = "audit_risk"
	FlagCertificationGap  FlagType = "certification_gap"
	FlagPartCompliance    FlagType = "part_compliance"
)

// RiskFlag is one risk finding attached to a vendor analysis.
type RiskFlag struct {
	Type        FlagType `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Value       float64  `json:"value"`
	Threshold   float64  `json:"threshold"`
}
