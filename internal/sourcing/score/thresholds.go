package score

// Thresholds configures every risk rule. Day counts are whole days; ratios
// are fractions (0.15 = 15%).
type Thresholds struct {
	StaleDays     int `json:"stale_days" mapstructure:"stale_days"`
	StaleHighDays int `json:"stale_high_days" mapstructure:"stale_high_days"`

	CostSpike     float64 `json:"cost_spike" mapstructure:"cost_spike"`
	CostSpikeHigh float64 `json:"cost_spike_high" mapstructure:"cost_spike_high"`

	OceanTransitDays     int `json:"ocean_transit_days" mapstructure:"ocean_transit_days"`
	OceanTransitHighDays int `json:"ocean_transit_high_days" mapstructure:"ocean_transit_high_days"`
	AirTransitDays       int `json:"air_transit_days" mapstructure:"air_transit_days"`
	AirTransitHighDays   int `json:"air_transit_high_days" mapstructure:"air_transit_high_days"`

	MinCapacity     int `json:"min_capacity" mapstructure:"min_capacity"`
	MinCapacityHigh int `json:"min_capacity_high" mapstructure:"min_capacity_high"`

	MinMaturity     float64 `json:"min_maturity" mapstructure:"min_maturity"`
	MinMaturityHigh float64 `json:"min_maturity_high" mapstructure:"min_maturity_high"`

	AuditWarnDays int `json:"audit_warn_days" mapstructure:"audit_warn_days"`
	AuditMaxDays  int `json:"audit_max_days" mapstructure:"audit_max_days"`
	AuditHighDays int `json:"audit_high_days" mapstructure:"audit_high_days"`

	PartComplianceMedium float64 `json:"part_compliance_medium" mapstructure:"part_compliance_medium"`
	PartComplianceHigh   float64 `json:"part_compliance_high" mapstructure:"part_compliance_high"`
}

// DefaultThresholds returns the stock rule configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StaleDays:     120,
		StaleHighDays: 180,

		CostSpike:     0.15,
		CostSpikeHigh: 0.25,

		OceanTransitDays:     21,
		OceanTransitHighDays: 35,
		AirTransitDays:       10,
		AirTransitHighDays:   14,

		MinCapacity:     5000,
		MinCapacityHigh: 2000,

		MinMaturity:     0.4,
		MinMaturityHigh: 0.25,

		AuditWarnDays: 330,
		AuditMaxDays:  365,
		AuditHighDays: 730,

		PartComplianceMedium: 0.8,
		PartComplianceHigh:   0.5,
	}
}
