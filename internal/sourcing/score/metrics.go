package score

import (
	"math"
	"time"

	"github.com/build-flow-labs/vendorscore/schema"
)

// vendorMetrics holds the raw per-vendor values that feed the pillar columns.
type vendorMetrics struct {
	vendor    schema.Vendor
	parts     []schema.Part
	avgCost   float64
	avgTime   float64
	capacity  int
	maturity  float64
	breakdown schema.MaturityBreakdown
}

// aggregate computes raw metrics for a vendor with at least one part.
// Non-finite or negative part values count as 0.
func aggregate(v schema.Vendor, parts []schema.Part, now time.Time) vendorMetrics {
	var cost, days float64
	capacity := 0
	for _, p := range parts {
		cost += math.Max(finite(p.TotalLandedCost()), 0)
		days += math.Max(float64(p.TotalTimeDays()), 0)
		if p.MonthlyCapacity > 0 {
			capacity += p.MonthlyCapacity
		}
	}
	n := float64(len(parts))
	raw, breakdown := Maturity(v, parts, now)

	return vendorMetrics{
		vendor:    v,
		parts:     parts,
		avgCost:   cost / n,
		avgTime:   days / n,
		capacity:  capacity,
		maturity:  raw,
		breakdown: breakdown,
	}
}

func (m vendorMetrics) inputs() schema.ScoreInputs {
	return schema.ScoreInputs{
		AvgLandedCost: m.avgCost,
		AvgTotalTime:  m.avgTime,
		TotalCapacity: m.capacity,
		RawMaturity:   m.maturity,
		PartCount:     len(m.parts),
		Maturity:      m.breakdown,
	}
}
