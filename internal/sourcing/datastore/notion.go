package datastore

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/build-flow-labs/vendorscore/schema"
)

// Vendor database property names.
const (
	propVendorName   = "Name"
	propRegion       = "Region"
	propContactEmail = "Contact Email"
	propLastVerified = "Last Verified"
)

// Part database property names.
const (
	propComponentName   = "Component Name"
	propVendorRelation  = "Vendor"
	propODMDestination  = "ODM Destination"
	propODMRegion       = "ODM Region"
	propUnitPrice       = "Unit Price"
	propFreightCost     = "Freight Cost"
	propTariffRate      = "Tariff Rate"
	propLeadTimeWeeks   = "Lead Time (weeks)"
	propTransitDays     = "Transit Days"
	propShippingMode    = "Shipping Mode"
	propMonthlyCapacity = "Monthly Capacity"
	propRoHS            = "RoHS Compliant"
	propREACH           = "REACH Compliant"
	propNotes           = "Notes"
)

// Enhanced vendor property names. A vendor page carrying any of them gets an
// enhanced bundle.
var enhancedProps = []string{
	"Vendor Maturity Score", "Annual Revenue (USD)", "Employee Count", "Founded Year",
	"Company Size", "Market Presence", "Financial Stability Score", "Debt to Equity Ratio",
	"Credit Rating", "Payment Terms (days)", "OTIF %", "PPM Defects", "Lead Time Consistency %",
	"Response Time (hrs)", "Communication Quality", "Manufacturing Sites", "Country Risk Score",
	"Currency Stability Risk", "Trade Relations Risk", "Regulatory Compliance Risk",
	"Supply Chain Resilience", "R&D Investment %", "Technology Readiness Level",
	"Digital Transformation Score", "Patent Portfolio Strength", "Innovation Partnership Potential",
	"Continuous Improvement Score", "UFLPA Compliant", "Conflict Minerals Compliant",
	"Last Audit Date", "ISO Certifications",
}

// NotionSource reads vendors and parts from two Notion databases.
type NotionSource struct {
	client      *Client
	vendorsDB   string
	partsDB     string
	concurrency int
	logger      *slog.Logger
}

// NewNotionSource creates a source over the given databases. Parts are
// fetched per vendor with up to concurrency requests in flight; the client's
// rate limiter still spaces them out.
func NewNotionSource(client *Client, vendorsDB, partsDB string, concurrency int, logger *slog.Logger) *NotionSource {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NotionSource{
		client:      client,
		vendorsDB:   vendorsDB,
		partsDB:     partsDB,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *NotionSource) Name() string { return "notion" }

// Fetch loads every vendor and then every vendor's parts.
func (s *NotionSource) Fetch(ctx context.Context) (*Dataset, error) {
	vendors, err := s.Vendors(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(vendors))
	for i, v := range vendors {
		ids[i] = v.ID
	}
	byVendor, err := s.PartsByVendor(ctx, ids)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Vendors: vendors}
	for _, id := range ids {
		ds.Parts = append(ds.Parts, byVendor[id]...)
	}
	if n := ds.clean(); n > 0 {
		s.logger.Warn("dropped records without identifiers", "count", n)
	}
	s.logger.Info("fetched dataset", "source", s.Name(), "vendors", len(ds.Vendors), "parts", len(ds.Parts))
	return ds, nil
}

// Vendors lists every vendor page.
func (s *NotionSource) Vendors(ctx context.Context) ([]schema.Vendor, error) {
	pages, err := s.client.QueryDatabase(ctx, s.vendorsDB, nil)
	if err != nil {
		return nil, err
	}
	vendors := make([]schema.Vendor, 0, len(pages))
	for _, p := range pages {
		vendors = append(vendors, parseVendor(p))
	}
	return vendors, nil
}

// PartsByVendor fetches each vendor's parts concurrently. Any failure cancels
// the remaining requests and no partial result is returned.
func (s *NotionSource) PartsByVendor(ctx context.Context, vendorIDs []string) (map[string][]schema.Part, error) {
	var mu sync.Mutex
	out := make(map[string][]schema.Part, len(vendorIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range vendorIDs {
		g.Go(func() error {
			parts, err := s.Parts(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = parts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Parts lists the parts related to one vendor.
func (s *NotionSource) Parts(ctx context.Context, vendorID string) ([]schema.Part, error) {
	filter := map[string]any{
		"property": propVendorRelation,
		"relation": map[string]string{"contains": vendorID},
	}
	pages, err := s.client.QueryDatabase(ctx, s.partsDB, filter)
	if err != nil {
		return nil, err
	}
	parts := make([]schema.Part, 0, len(pages))
	for _, p := range pages {
		part := parsePart(p)
		// A page related to several vendors is returned once per vendor
		// query and belongs to the vendor it was queried for.
		part.VendorID = vendorID
		parts = append(parts, part)
	}
	return parts, nil
}

func parseVendor(p Page) schema.Vendor {
	props := p.Properties
	v := schema.Vendor{
		ID:           p.ID,
		Name:         props.Title(propVendorName),
		Region:       strings.ToUpper(strings.TrimSpace(props.Select(propRegion))),
		ContactEmail: props.Email(propContactEmail),
		LastVerified: props.Date(propLastVerified),
		CreatedAt:    p.CreatedTime,
	}
	for _, name := range enhancedProps {
		if props.Has(name) {
			v.Enhanced = parseEnhanced(props)
			break
		}
	}
	return v
}

func parseEnhanced(props Properties) *schema.EnhancedAttributes {
	e := &schema.EnhancedAttributes{
		AnnualRevenue:      props.Float("Annual Revenue (USD)"),
		EmployeeCount:      props.Int("Employee Count"),
		FoundedYear:        props.Int("Founded Year"),
		CompanySize:        schema.ParseCompanySize(props.Select("Company Size")),
		MarketPresence:     props.Select("Market Presence"),
		ManufacturingSites: props.Int("Manufacturing Sites"),

		FinancialStability: props.Float("Financial Stability Score"),
		DebtToEquity:       props.Float("Debt to Equity Ratio"),
		CreditRating:       props.Select("Credit Rating"),
		PaymentTermsDays:   props.Int("Payment Terms (days)"),

		OTIFPercent:          props.Float("OTIF %"),
		DefectsPPM:           props.Float("PPM Defects"),
		LeadTimeConsistency:  props.Float("Lead Time Consistency %"),
		ResponseTimeHours:    props.Float("Response Time (hrs)"),
		CommunicationQuality: props.Float("Communication Quality"),

		CountryRisk:              props.Float("Country Risk Score"),
		CurrencyStabilityRisk:    props.Float("Currency Stability Risk"),
		TradeRelationsRisk:       props.Float("Trade Relations Risk"),
		RegulatoryComplianceRisk: props.Float("Regulatory Compliance Risk"),
		SupplyChainResilience:    props.Float("Supply Chain Resilience"),

		RDInvestmentPercent:            props.Float("R&D Investment %"),
		TechnologyReadinessLevel:       props.Float("Technology Readiness Level"),
		DigitalTransformation:          props.Float("Digital Transformation Score"),
		PatentPortfolioStrength:        props.Float("Patent Portfolio Strength"),
		InnovationPartnershipPotential: props.Float("Innovation Partnership Potential"),
		ContinuousImprovement:          props.Float("Continuous Improvement Score"),

		UFLPACompliant:            props.Checkbox("UFLPA Compliant"),
		ConflictMineralsCompliant: props.Checkbox("Conflict Minerals Compliant"),
		LastAuditDate:             props.Date("Last Audit Date"),
		ISOCertifications:         props.MultiSelect("ISO Certifications"),
	}
	if ms, ok := props.Number("Vendor Maturity Score"); ok {
		e.MaturityScore = &ms
	}
	return e
}

func parsePart(p Page) schema.Part {
	props := p.Properties
	// Tariff rate is stored as a fraction in the database.
	tariff := props.Float(propTariffRate) * 100
	return schema.Part{
		ID:              p.ID,
		VendorID:        props.RelationID(propVendorRelation),
		ComponentName:   props.Title(propComponentName),
		ODMDestination:  props.Text(propODMDestination),
		ODMRegion:       props.Text(propODMRegion),
		UnitPrice:       props.Float(propUnitPrice),
		FreightCost:     props.Float(propFreightCost),
		TariffRatePct:   tariff,
		LeadTimeWeeks:   props.Int(propLeadTimeWeeks),
		TransitDays:     props.Int(propTransitDays),
		ShippingMode:    schema.ParseShippingMode(props.Select(propShippingMode)),
		MonthlyCapacity: props.Int(propMonthlyCapacity),
		RoHSCompliant:   props.Checkbox(propRoHS),
		REACHCompliant:  props.Checkbox(propREACH),
		LastVerified:    props.Date(propLastVerified),
		Notes:           props.Text(propNotes),
	}
}
