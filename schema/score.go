package schema

import (
	"math"
	"sort"
	"time"
)

// Pillar names one scoring dimension.
type Pillar string

const (
	PillarCost     Pillar = "total_cost"
	PillarTime     Pillar = "total_time"
	PillarMaturity Pillar = "maturity"
	PillarCapacity Pillar = "capacity"
)

// Pillars lists every pillar in display order.
var Pillars = []Pillar{PillarCost, PillarTime, PillarMaturity, PillarCapacity}

// ParsePillar accepts a pillar name. "reliability" is kept as an alias for
// maturity since older weight files used it.
func ParsePillar(s string) (Pillar, bool) {
	switch Pillar(s) {
	case PillarCost, PillarTime, PillarMaturity, PillarCapacity:
		return Pillar(s), true
	case "reliability":
		return PillarMaturity, true
	}
	return "", false
}

// Default pillar coefficients.
const (
	DefaultWeightCost     = 0.4
	DefaultWeightTime     = 0.3
	DefaultWeightMaturity = 0.2
	DefaultWeightCapacity = 0.1
)

// normalizedTolerance is how far from 1 a sum may be and still count as
// normalized.
const normalizedTolerance = 1e-12

// Weights are the per-pillar coefficients of the final score.
// Values produced by NewWeights, DefaultWeights and Normalized sum to 1.
type Weights struct {
	Cost     float64 `json:"total_cost" yaml:"total_cost"`
	Time     float64 `json:"total_time" yaml:"total_time"`
	Maturity float64 `json:"maturity" yaml:"maturity"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
}

// DefaultWeights returns 0.4 cost, 0.3 time, 0.2 maturity, 0.1 capacity.
func DefaultWeights() Weights {
	return Weights{
		Cost:     DefaultWeightCost,
		Time:     DefaultWeightTime,
		Maturity: DefaultWeightMaturity,
		Capacity: DefaultWeightCapacity,
	}
}

// NewWeights builds a normalized weight set from raw coefficients.
func NewWeights(cost, time, maturity, capacity float64) Weights {
	return Weights{Cost: cost, Time: time, Maturity: maturity, Capacity: capacity}.Normalized()
}

// Sum returns the sum of the four coefficients.
func (w Weights) Sum() float64 {
	return w.Cost + w.Time + w.Maturity + w.Capacity
}

// Normalized returns a copy scaled to sum to 1. Negative or non-finite
// coefficients count as 0; if nothing positive remains the defaults apply.
// A set that already sums to 1 is returned unchanged, so normalizing twice
// yields the same values.
func (w Weights) Normalized() Weights {
	out := Weights{
		Cost:     nonNegative(w.Cost),
		Time:     nonNegative(w.Time),
		Maturity: nonNegative(w.Maturity),
		Capacity: nonNegative(w.Capacity),
	}
	total := out.Sum()
	if total <= 0 || math.IsInf(total, 0) {
		return DefaultWeights()
	}
	if math.Abs(total-1) <= normalizedTolerance {
		return out
	}
	out.Cost /= total
	out.Time /= total
	out.Maturity /= total
	out.Capacity /= total
	return out
}

// Get returns the coefficient for p, or 0 for an unknown pillar.
func (w Weights) Get(p Pillar) float64 {
	switch p {
	case PillarCost:
		return w.Cost
	case PillarTime:
		return w.Time
	case PillarMaturity:
		return w.Maturity
	case PillarCapacity:
		return w.Capacity
	}
	return 0
}

// Map returns the coefficients keyed by pillar.
func (w Weights) Map() map[Pillar]float64 {
	return map[Pillar]float64{
		PillarCost:     w.Cost,
		PillarTime:     w.Time,
		PillarMaturity: w.Maturity,
		PillarCapacity: w.Capacity,
	}
}

// Apply overlays the set fields of u on w and renormalizes. Unset fields keep
// their current value.
func (w Weights) Apply(u WeightsUpdate) Weights {
	if u.Cost != nil {
		w.Cost = *u.Cost
	}
	if u.Time != nil {
		w.Time = *u.Time
	}
	if u.Maturity != nil {
		w.Maturity = *u.Maturity
	}
	if u.Capacity != nil {
		w.Capacity = *u.Capacity
	}
	return w.Normalized()
}

// WeightsUpdate is a partial weight change. Nil fields are left alone.
type WeightsUpdate struct {
	Cost     *float64 `json:"total_cost,omitempty"`
	Time     *float64 `json:"total_time,omitempty"`
	Maturity *float64 `json:"maturity,omitempty"`
	Capacity *float64 `json:"capacity,omitempty"`
}

// Complete reports whether every pillar is set.
func (u WeightsUpdate) Complete() bool {
	return u.Cost != nil && u.Time != nil && u.Maturity != nil && u.Capacity != nil
}

// Set assigns the coefficient for p. Unknown pillars are ignored.
func (u *WeightsUpdate) Set(p Pillar, v float64) {
	switch p {
	case PillarCost:
		u.Cost = &v
	case PillarTime:
		u.Time = &v
	case PillarMaturity:
		u.Maturity = &v
	case PillarCapacity:
		u.Capacity = &v
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// MaturityPath tells which computation produced a raw maturity value.
type MaturityPath string

const (
	MaturityEnhanced MaturityPath = "enhanced"
	MaturityProxy    MaturityPath = "proxy"
)

// MaturityBreakdown records how the raw maturity composite was derived.
// Component fields are populated only for the path that produced them.
type MaturityBreakdown struct {
	Path MaturityPath `json:"path"`

	// Enhanced path: weighted dimensions in [0,1].
	Operational float64 `json:"operational_excellence,omitempty"`
	Financial   float64 `json:"financial_maturity,omitempty"`
	Innovation  float64 `json:"innovation_technology,omitempty"`
	Business    float64 `json:"business_maturity,omitempty"`
	Partnership float64 `json:"partnership_communication,omitempty"`

	// Proxy path.
	RegionReputation float64 `json:"region_reputation,omitempty"`
	Geopolitical     float64 `json:"geopolitical_alignment,omitempty"`
	Freshness        float64 `json:"data_freshness,omitempty"`
	ShippingRisk     float64 `json:"shipping_risk,omitempty"`
}

// ScoreInputs are the raw metrics a score was computed from.
type ScoreInputs struct {
	AvgLandedCost float64           `json:"avg_landed_cost"`
	AvgTotalTime  float64           `json:"avg_total_time"`
	TotalCapacity int               `json:"total_capacity"`
	RawMaturity   float64           `json:"raw_maturity"`
	PartCount     int               `json:"part_count"`
	Maturity      MaturityBreakdown `json:"maturity"`
}

// VendorScore is one immutable scored snapshot of a vendor.
type VendorScore struct {
	ID            string      `json:"id"`
	VendorID      string      `json:"vendor_id"`
	VendorName    string      `json:"vendor_name"`
	CostScore     float64     `json:"total_cost_score"`
	TimeScore     float64     `json:"total_time_score"`
	MaturityScore float64     `json:"maturity_score"`
	CapacityScore float64     `json:"capacity_score"`
	FinalScore    float64     `json:"final_score"`
	Weights       Weights     `json:"weights"`
	Inputs        ScoreInputs `json:"inputs"`
	ComputedAt    time.Time   `json:"computed_at"`
	SnapshotDate  Date        `json:"snapshot_date"`
}

// Pillar returns the normalized sub-score for p.
func (s VendorScore) Pillar(p Pillar) float64 {
	switch p {
	case PillarCost:
		return s.CostScore
	case PillarTime:
		return s.TimeScore
	case PillarMaturity:
		return s.MaturityScore
	case PillarCapacity:
		return s.CapacityScore
	}
	return 0
}

// History is a vendor's past snapshots. Order is not assumed; accessors sort.
type History []VendorScore

// Sorted returns a copy ordered by ComputedAt ascending.
func (h History) Sorted() History {
	out := make(History, len(h))
	copy(out, h)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ComputedAt.Before(out[j].ComputedAt)
	})
	return out
}

// Latest returns the most recent snapshot.
func (h History) Latest() (VendorScore, bool) {
	if len(h) == 0 {
		return VendorScore{}, false
	}
	s := h.Sorted()
	return s[len(s)-1], true
}

// Previous returns the most recent snapshot computed strictly before current.
// A zero current.ComputedAt selects the latest snapshot overall.
func (h History) Previous(current VendorScore) (VendorScore, bool) {
	if current.ComputedAt.IsZero() {
		return h.Latest()
	}
	s := h.Sorted()
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].ComputedAt.Before(current.ComputedAt) {
			return s[i], true
		}
	}
	return VendorScore{}, false
}
