package schema

import "strings"

// ShippingMode is the freight mode used to move a part to its ODM.
type ShippingMode string

const (
	ShippingAir    ShippingMode = "Air"
	ShippingOcean  ShippingMode = "Ocean"
	ShippingGround ShippingMode = "Ground"
)

// ParseShippingMode normalizes a mode label. Unknown labels map to "".
func ParseShippingMode(s string) ShippingMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "air":
		return ShippingAir
	case "ocean", "sea":
		return ShippingOcean
	case "ground", "truck", "rail":
		return ShippingGround
	default:
		return ""
	}
}

// Part is one component quote offered by a vendor.
type Part struct {
	ID             string `json:"id" yaml:"id"`
	VendorID       string `json:"vendor_id" yaml:"vendor_id"`
	VendorName     string `json:"vendor_name,omitempty" yaml:"vendor_name,omitempty"`
	ComponentName  string `json:"component_name" yaml:"component_name"`
	ODMDestination string `json:"odm_destination,omitempty" yaml:"odm_destination,omitempty"`
	ODMRegion      string `json:"odm_region,omitempty" yaml:"odm_region,omitempty"`

	// Pricing (FOB)
	UnitPrice     float64 `json:"unit_price" yaml:"unit_price"`
	FreightCost   float64 `json:"freight_cost" yaml:"freight_cost"`
	TariffRatePct float64 `json:"tariff_rate_pct" yaml:"tariff_rate_pct"`

	// Timing
	LeadTimeWeeks int          `json:"lead_time_weeks" yaml:"lead_time_weeks"`
	TransitDays   int          `json:"transit_days" yaml:"transit_days"`
	ShippingMode  ShippingMode `json:"shipping_mode" yaml:"shipping_mode"`

	MonthlyCapacity int `json:"monthly_capacity" yaml:"monthly_capacity"`

	RoHSCompliant  bool `json:"rohs_compliant" yaml:"rohs_compliant"`
	REACHCompliant bool `json:"reach_compliant" yaml:"reach_compliant"`

	LastVerified Date   `json:"last_verified" yaml:"last_verified,omitempty"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TotalLandedCost is FOB price plus freight plus the tariff amount.
func (p Part) TotalLandedCost() float64 {
	tariff := p.UnitPrice * (p.TariffRatePct / 100)
	return p.UnitPrice + p.FreightCost + tariff
}

// TotalTimeDays is lead time plus transit time, in days.
func (p Part) TotalTimeDays() int {
	return p.LeadTimeWeeks*7 + p.TransitDays
}

// Mode returns the normalized shipping mode.
func (p Part) Mode() ShippingMode {
	return ParseShippingMode(string(p.ShippingMode))
}
