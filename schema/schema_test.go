package schema

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestPartDerived(t *testing.T) {
	p := Part{UnitPrice: 10, FreightCost: 1, TariffRatePct: 5, LeadTimeWeeks: 3, TransitDays: 5}

	if got := p.TotalLandedCost(); math.Abs(got-11.5) > 1e-9 {
		t.Errorf("TotalLandedCost() = %v, want 11.5", got)
	}
	if got := p.TotalTimeDays(); got != 26 {
		t.Errorf("TotalTimeDays() = %d, want 26", got)
	}

	// Derived values follow field edits.
	p.FreightCost = 2
	if got := p.TotalLandedCost(); math.Abs(got-12.5) > 1e-9 {
		t.Errorf("TotalLandedCost() after edit = %v, want 12.5", got)
	}
}

func TestParseShippingMode(t *testing.T) {
	tests := []struct {
		in   string
		want ShippingMode
	}{
		{"Ocean", ShippingOcean},
		{"ocean", ShippingOcean},
		{" AIR ", ShippingAir},
		{"Ground", ShippingGround},
		{"rail", ShippingGround},
		{"teleport", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseShippingMode(tt.in); got != tt.want {
			t.Errorf("ParseShippingMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWeightsNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   Weights
		want Weights
	}{
		{"defaults unchanged", DefaultWeights(), DefaultWeights()},
		{"scaled", Weights{Cost: 4, Time: 3, Maturity: 2, Capacity: 1}, DefaultWeights()},
		{"all zero falls back", Weights{}, DefaultWeights()},
		{"negative clamps", Weights{Cost: -1, Time: 1, Maturity: 1, Capacity: 2}, Weights{Time: 0.25, Maturity: 0.25, Capacity: 0.5}},
		{"nan clamps", Weights{Cost: math.NaN(), Time: 1}, Weights{Time: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalized()
			for _, p := range Pillars {
				if math.Abs(got.Get(p)-tt.want.Get(p)) > 1e-9 {
					t.Errorf("%s = %v, want %v", p, got.Get(p), tt.want.Get(p))
				}
			}
			if math.Abs(got.Sum()-1) > 1e-9 {
				t.Errorf("Sum() = %v, want 1", got.Sum())
			}
		})
	}
}

func TestWeightsNormalizedIdempotent(t *testing.T) {
	w := NewWeights(7, 1, 3, 0.5)
	again := w.Normalized()
	if w != again {
		t.Errorf("Normalized() changed normalized weights: %+v -> %+v", w, again)
	}

	d := DefaultWeights()
	if got := d.Normalized(); got != d {
		t.Errorf("DefaultWeights().Normalized() = %+v, want %+v", got, d)
	}
	if got := NewWeights(DefaultWeightCost, DefaultWeightTime, DefaultWeightMaturity, DefaultWeightCapacity); got != d {
		t.Errorf("NewWeights(defaults) = %+v, want %+v", got, d)
	}
}

func TestWeightsApply(t *testing.T) {
	cost := 0.0
	got := DefaultWeights().Apply(WeightsUpdate{Cost: &cost})

	// Remaining 0.3/0.2/0.1 renormalize to 0.5/0.333/0.167.
	if got.Cost != 0 {
		t.Errorf("Cost = %v, want 0", got.Cost)
	}
	if math.Abs(got.Time-0.5) > 1e-9 {
		t.Errorf("Time = %v, want 0.5", got.Time)
	}
	if math.Abs(got.Sum()-1) > 1e-9 {
		t.Errorf("Sum() = %v, want 1", got.Sum())
	}
}

func TestParsePillar(t *testing.T) {
	if p, ok := ParsePillar("reliability"); !ok || p != PillarMaturity {
		t.Errorf("ParsePillar(reliability) = %q, %v", p, ok)
	}
	if _, ok := ParsePillar("speed"); ok {
		t.Error("ParsePillar(speed) should fail")
	}
}

func TestHistoryPrevious(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	h := History{
		{ID: "c", ComputedAt: base.AddDate(0, 2, 0)},
		{ID: "a", ComputedAt: base},
		{ID: "b", ComputedAt: base.AddDate(0, 1, 0)},
	}

	tests := []struct {
		name    string
		current VendorScore
		wantID  string
		wantOK  bool
	}{
		{"latest when current unset", VendorScore{}, "c", true},
		{"strictly before current", VendorScore{ComputedAt: base.AddDate(0, 2, 0)}, "b", true},
		{"between snapshots", VendorScore{ComputedAt: base.AddDate(0, 1, 5)}, "b", true},
		{"nothing earlier", VendorScore{ComputedAt: base}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.Previous(tt.current)
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("Previous() = %q, %v; want %q, %v", got.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}

	if _, ok := (History{}).Latest(); ok {
		t.Error("Latest() on empty history should report false")
	}
}

func TestDateCodec(t *testing.T) {
	var v struct {
		LastVerified Date `json:"last_verified" yaml:"last_verified"`
	}

	if err := json.Unmarshal([]byte(`{"last_verified":"2026-01-02"}`), &v); err != nil {
		t.Fatalf("json: %v", err)
	}
	if v.LastVerified.String() != "2026-01-02" {
		t.Errorf("json date = %q, want 2026-01-02", v.LastVerified)
	}

	if err := yaml.Unmarshal([]byte("last_verified: 2026-02-03T10:00:00Z\n"), &v); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if v.LastVerified.String() != "2026-02-03" {
		t.Errorf("yaml date = %q, want 2026-02-03", v.LastVerified)
	}

	if err := json.Unmarshal([]byte(`{"last_verified":null}`), &v); err != nil {
		t.Fatalf("json null: %v", err)
	}
	if !v.LastVerified.IsZero() {
		t.Errorf("null date = %q, want zero", v.LastVerified)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"last_verified":null}` {
		t.Errorf("Marshal = %s", out)
	}

	if _, err := ParseDate("yesterday"); err == nil {
		t.Error("ParseDate(yesterday) should fail")
	}
}

func TestDateDaysSince(t *testing.T) {
	d := NewDate(time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC))
	now := time.Date(2026, 7, 20, 1, 0, 0, 0, time.UTC)
	if got := d.DaysSince(now); got != 200 {
		t.Errorf("DaysSince() = %d, want 200", got)
	}
}

func TestAnalysisAggregates(t *testing.T) {
	a := VendorAnalysis{
		Parts: []Part{
			{UnitPrice: 10, LeadTimeWeeks: 1, MonthlyCapacity: 100},
			{UnitPrice: 20, LeadTimeWeeks: 3, MonthlyCapacity: 300},
		},
		Flags: []RiskFlag{{Type: FlagDelayRisk, Severity: SeverityMedium}},
	}
	if got := a.AvgLandedCost(); got != 15 {
		t.Errorf("AvgLandedCost() = %v, want 15", got)
	}
	if got := a.AvgTotalTime(); got != 14 {
		t.Errorf("AvgTotalTime() = %v, want 14", got)
	}
	if got := a.TotalMonthlyCapacity(); got != 400 {
		t.Errorf("TotalMonthlyCapacity() = %d, want 400", got)
	}
	if a.HasHighRisk() {
		t.Error("HasHighRisk() = true, want false")
	}
	if got := a.MaxSeverity(); got != SeverityMedium {
		t.Errorf("MaxSeverity() = %q, want medium", got)
	}
}
