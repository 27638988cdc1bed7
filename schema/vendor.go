package schema

import (
	"strings"
	"time"
)

// Vendor is a supplier of manufactured components.
type Vendor struct {
	ID           string              `json:"id" yaml:"id"`
	Name         string              `json:"name" yaml:"name"`
	Region       string              `json:"region" yaml:"region"` // US, EU, KR, CN, VN, MX, IN, ...
	ContactEmail string              `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
	LastVerified Date                `json:"last_verified" yaml:"last_verified,omitempty"`
	CreatedAt    time.Time           `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	Enhanced     *EnhancedAttributes `json:"enhanced,omitempty" yaml:"enhanced,omitempty"`
}

// CompanySize is the headcount class reported by the data source.
type CompanySize string

const (
	CompanyEnterprise CompanySize = "enterprise"
	CompanyLarge      CompanySize = "large"
	CompanyMedium     CompanySize = "medium"
	CompanySmall      CompanySize = "small"
)

// ParseCompanySize maps free-form labels ("Enterprise", " LARGE ") to a size.
// Unrecognized labels are returned lowercased so callers can fall back to defaults.
func ParseCompanySize(s string) CompanySize {
	return CompanySize(strings.ToLower(strings.TrimSpace(s)))
}

// EnhancedAttributes is the optional bundle of operational, financial,
// innovation, business, risk and compliance attributes a data source may
// carry for a vendor. Absent numbers are zero and absent flags are false.
//
// Percent-like fields (OTIFPercent, LeadTimeConsistency, RDInvestmentPercent)
// may be supplied either as fractions (0.96) or percents (96).
type EnhancedAttributes struct {
	// Precomputed composite maturity in [0,1]. Nil selects the proxy path.
	MaturityScore *float64 `json:"vendor_maturity_score,omitempty" yaml:"vendor_maturity_score,omitempty"`

	// Business
	AnnualRevenue      float64     `json:"annual_revenue,omitempty" yaml:"annual_revenue,omitempty"`
	EmployeeCount      int         `json:"employee_count,omitempty" yaml:"employee_count,omitempty"`
	FoundedYear        int         `json:"founded_year,omitempty" yaml:"founded_year,omitempty"`
	CompanySize        CompanySize `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	MarketPresence     string      `json:"market_presence,omitempty" yaml:"market_presence,omitempty"`
	ManufacturingSites int         `json:"manufacturing_sites,omitempty" yaml:"manufacturing_sites,omitempty"`

	// Financial
	FinancialStability float64 `json:"financial_stability_score,omitempty" yaml:"financial_stability_score,omitempty"`
	DebtToEquity       float64 `json:"debt_to_equity_ratio,omitempty" yaml:"debt_to_equity_ratio,omitempty"`
	CreditRating       string  `json:"credit_rating,omitempty" yaml:"credit_rating,omitempty"`
	PaymentTermsDays   int     `json:"payment_terms,omitempty" yaml:"payment_terms,omitempty"`

	// Operational
	OTIFPercent          float64 `json:"otif_percent,omitempty" yaml:"otif_percent,omitempty"`
	DefectsPPM           float64 `json:"ppm_defects,omitempty" yaml:"ppm_defects,omitempty"`
	LeadTimeConsistency  float64 `json:"lead_time_consistency,omitempty" yaml:"lead_time_consistency,omitempty"`
	ResponseTimeHours    float64 `json:"response_time,omitempty" yaml:"response_time,omitempty"`
	CommunicationQuality float64 `json:"communication_quality,omitempty" yaml:"communication_quality,omitempty"`

	// Risk
	CountryRisk              float64 `json:"country_risk_score,omitempty" yaml:"country_risk_score,omitempty"`
	CurrencyStabilityRisk    float64 `json:"currency_stability_risk,omitempty" yaml:"currency_stability_risk,omitempty"`
	TradeRelationsRisk       float64 `json:"trade_relations_risk,omitempty" yaml:"trade_relations_risk,omitempty"`
	RegulatoryComplianceRisk float64 `json:"regulatory_compliance_risk,omitempty" yaml:"regulatory_compliance_risk,omitempty"`
	SupplyChainResilience    float64 `json:"supply_chain_resilience,omitempty" yaml:"supply_chain_resilience,omitempty"`

	// Innovation
	RDInvestmentPercent            float64 `json:"rd_investment_percent,omitempty" yaml:"rd_investment_percent,omitempty"`
	TechnologyReadinessLevel       float64 `json:"technology_readiness_level,omitempty" yaml:"technology_readiness_level,omitempty"`
	DigitalTransformation          float64 `json:"digital_transformation_score,omitempty" yaml:"digital_transformation_score,omitempty"`
	PatentPortfolioStrength        float64 `json:"patent_portfolio_strength,omitempty" yaml:"patent_portfolio_strength,omitempty"`
	InnovationPartnershipPotential float64 `json:"innovation_partnership_potential,omitempty" yaml:"innovation_partnership_potential,omitempty"`
	ContinuousImprovement          float64 `json:"continuous_improvement_score,omitempty" yaml:"continuous_improvement_score,omitempty"`

	// Compliance
	UFLPACompliant            bool     `json:"uflpa_compliant" yaml:"uflpa_compliant"`
	ConflictMineralsCompliant bool     `json:"conflict_minerals_compliant" yaml:"conflict_minerals_compliant"`
	LastAuditDate             Date     `json:"last_audit_date" yaml:"last_audit_date,omitempty"`
	ISOCertifications         []string `json:"iso_certifications,omitempty" yaml:"iso_certifications,omitempty"`
}

// HasMaturityScore reports whether the bundle carries a precomputed composite.
func (e *EnhancedAttributes) HasMaturityScore() bool {
	return e != nil && e.MaturityScore != nil
}
