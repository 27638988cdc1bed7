package score

import (
	"fmt"
	"strings"
	"time"

	"github.com/build-flow-labs/vendorscore/schema"
)

// Expected ISO certification counts by company size.
var expectedCertifications = map[schema.CompanySize]int{
	schema.CompanyEnterprise: 4,
	schema.CompanyLarge:      3,
	schema.CompanyMedium:     2,
	schema.CompanySmall:      1,
}

const defaultExpectedCertifications = 2

// ExpectedCertifications returns how many certifications a vendor of the
// given size is expected to hold.
func ExpectedCertifications(size schema.CompanySize) int {
	if n, ok := expectedCertifications[schema.ParseCompanySize(string(size))]; ok {
		return n
	}
	return defaultExpectedCertifications
}

// VendorComplianceRule checks the compliance attributes of the enhanced
// bundle. Vendors without a bundle are skipped.
func VendorComplianceRule(in RiskInput, th Thresholds, now time.Time) []schema.RiskFlag {
	e := in.Vendor.Enhanced
	if e == nil {
		return nil
	}
	var flags []schema.RiskFlag

	if !e.UFLPACompliant {
		flags = append(flags, schema.RiskFlag{
			Type:        schema.FlagCompliance,
			Severity:    schema.SeverityHigh,
			Description: "Vendor is not UFLPA compliant",
		})
	}
	if !e.ConflictMineralsCompliant {
		flags = append(flags, schema.RiskFlag{
			Type:        schema.FlagCompliance,
			Severity:    schema.SeverityHigh,
			Description: "Vendor is not conflict minerals compliant",
		})
	}

	if f, ok := auditFlag(e.LastAuditDate, th, now); ok {
		flags = append(flags, f)
	}

	held := 0
	for _, c := range e.ISOCertifications {
		if strings.TrimSpace(c) != "" {
			held++
		}
	}
	if want := ExpectedCertifications(e.CompanySize); held < want {
		sev := schema.SeverityLow
		if held == 0 {
			sev = schema.SeverityMedium
		}
		flags = append(flags, schema.RiskFlag{
			Type:        schema.FlagCertificationGap,
			Severity:    sev,
			Description: fmt.Sprintf("Holds %d of %d expected ISO certifications", held, want),
			Value:       float64(held),
			Threshold:   float64(want),
		})
	}
	return flags
}

func auditFlag(last schema.Date, th Thresholds, now time.Time) (schema.RiskFlag, bool) {
	if last.IsZero() {
		return schema.RiskFlag{
			Type:        schema.FlagAuditRisk,
			Severity:    schema.SeverityMedium,
			Description: "No audit on record",
			Threshold:   float64(th.AuditMaxDays),
		}, true
	}

	days := last.DaysSince(now)
	var sev schema.Severity
	var desc string
	switch {
	case days > th.AuditHighDays:
		sev, desc = schema.SeverityHigh, fmt.Sprintf("Last audit %d days ago", days)
	case days > th.AuditMaxDays:
		sev, desc = schema.SeverityMedium, fmt.Sprintf("Last audit %d days ago", days)
	case days > th.AuditWarnDays:
		sev, desc = schema.SeverityLow, fmt.Sprintf("Audit due soon: last audit %d days ago", days)
	default:
		return schema.RiskFlag{}, false
	}
	return schema.RiskFlag{
		Type:        schema.FlagAuditRisk,
		Severity:    sev,
		Description: desc,
		Value:       float64(days),
		Threshold:   float64(th.AuditMaxDays),
	}, true
}

type partCertification struct {
	name      string
	compliant func(schema.Part) bool
}

var partCertifications = []partCertification{
	{"RoHS", func(p schema.Part) bool { return p.RoHSCompliant }},
	{"REACH", func(p schema.Part) bool { return p.REACHCompliant }},
}

// PartComplianceRule flags certifications that too few parts hold.
func PartComplianceRule(in RiskInput, th Thresholds, _ time.Time) []schema.RiskFlag {
	if len(in.Parts) == 0 {
		return nil
	}
	var flags []schema.RiskFlag
	for _, cert := range partCertifications {
		ok := 0
		for _, p := range in.Parts {
			if cert.compliant(p) {
				ok++
			}
		}
		if ok == len(in.Parts) {
			continue
		}
		frac := float64(ok) / float64(len(in.Parts))
		var sev schema.Severity
		switch {
		case frac < th.PartComplianceHigh:
			sev = schema.SeverityHigh
		case frac < th.PartComplianceMedium:
			sev = schema.SeverityMedium
		default:
			continue
		}
		flags = append(flags, schema.RiskFlag{
			Type:        schema.FlagPartCompliance,
			Severity:    sev,
			Description: fmt.Sprintf("%s compliant on %d of %d parts", cert.name, ok, len(in.Parts)),
			Value:       frac,
			Threshold:   th.PartComplianceMedium,
		})
	}
	return flags
}
