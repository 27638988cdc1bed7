package score

import (
	"math"
	"time"

	"github.com/build-flow-labs/vendorscore/schema"
)

// Enhanced-path dimension weights.
const (
	weightOperational = 0.35
	weightFinancial   = 0.25
	weightInnovation  = 0.20
	weightBusiness    = 0.15
	weightPartnership = 0.05
)

// Proxy-path factor weights.
const (
	weightRegion       = 0.35
	weightGeopolitical = 0.35
	weightFreshness    = 0.15
	weightShipping     = 0.15
)

var companySizeFactor = map[schema.CompanySize]float64{
	schema.CompanyEnterprise: 1.0,
	schema.CompanyLarge:      0.85,
	schema.CompanyMedium:     0.7,
	schema.CompanySmall:      0.55,
}

const defaultCompanySizeFactor = 0.6

// CompanySizeFactor returns the business-maturity size factor.
func CompanySizeFactor(size schema.CompanySize) float64 {
	if v, ok := companySizeFactor[schema.ParseCompanySize(string(size))]; ok {
		return v
	}
	return defaultCompanySizeFactor
}

// Maturity computes a vendor's raw maturity composite in [0,1].
//
// Vendors whose enhanced bundle carries a precomputed maturity score use it
// directly; the five dimensions are still derived for the breakdown. Every
// other vendor goes through the regional proxy. Breakdown fields hold each
// factor already multiplied by its weight.
func Maturity(v schema.Vendor, parts []schema.Part, now time.Time) (float64, schema.MaturityBreakdown) {
	if v.Enhanced.HasMaturityScore() {
		return enhancedMaturity(v.Enhanced, now)
	}
	return proxyMaturity(v, parts, now)
}

func enhancedMaturity(e *schema.EnhancedAttributes, now time.Time) (float64, schema.MaturityBreakdown) {
	defects := math.Max(finite(e.DefectsPPM), 0)
	operational := 0.4*fraction(e.OTIFPercent) +
		0.3*fraction(e.LeadTimeConsistency) +
		0.3*(1-math.Min(defects/1000, 1))

	debt := math.Max(finite(e.DebtToEquity), 0)
	financial := 0.6*fraction(e.FinancialStability) +
		0.4*clamp01((4-debt)/4)

	innovation := 0.4*fraction(e.DigitalTransformation) +
		0.3*clamp01(finite(e.TechnologyReadinessLevel)/9) +
		0.3*fraction(e.PatentPortfolioStrength)

	age := 0
	if e.FoundedYear > 0 && e.FoundedYear <= now.Year() {
		age = now.Year() - e.FoundedYear
	}
	business := 0.6*math.Min(1, float64(age)/25) +
		0.4*CompanySizeFactor(e.CompanySize)

	partnership := 0.7*fraction(e.CommunicationQuality) +
		0.3*fraction(e.ContinuousImprovement)

	return fraction(*e.MaturityScore), schema.MaturityBreakdown{
		Path:        schema.MaturityEnhanced,
		Operational: weightOperational * operational,
		Financial:   weightFinancial * financial,
		Innovation:  weightInnovation * innovation,
		Business:    weightBusiness * business,
		Partnership: weightPartnership * partnership,
	}
}

func proxyMaturity(v schema.Vendor, parts []schema.Part, now time.Time) (float64, schema.MaturityBreakdown) {
	b := schema.MaturityBreakdown{
		Path:             schema.MaturityProxy,
		RegionReputation: weightRegion * RegionReputation(v.Region),
		Geopolitical:     weightGeopolitical * GeopoliticalAlignment(v.Region),
		Freshness:        weightFreshness * freshnessTier(v.LastVerified, now),
		ShippingRisk:     weightShipping * shippingRisk(parts),
	}
	raw := b.RegionReputation + b.Geopolitical + b.Freshness + b.ShippingRisk
	return clamp01(raw), b
}

// freshnessTier scores how recently vendor data was verified.
func freshnessTier(verified schema.Date, now time.Time) float64 {
	if verified.IsZero() {
		return 0.6
	}
	days := verified.DaysSince(now)
	switch {
	case days <= 30:
		return 1.0
	case days <= 60:
		return 0.85
	case days <= 90:
		return 0.75
	default:
		return 0.6
	}
}

// shippingRisk penalizes ocean freight and long transits, floored at 0.6.
func shippingRisk(parts []schema.Part) float64 {
	if len(parts) == 0 {
		return 1.0
	}
	ocean, transit := 0, 0
	for _, p := range parts {
		if p.Mode() == schema.ShippingOcean {
			ocean++
		}
		if p.TransitDays > 0 {
			transit += p.TransitDays
		}
	}
	oceanShare := float64(ocean) / float64(len(parts))
	avgTransit := float64(transit) / float64(len(parts))
	penalty := 0.10*oceanShare + 2*math.Max(0, avgTransit-10)/100
	return math.Max(0.6, 1-penalty)
}
