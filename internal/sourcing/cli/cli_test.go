package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-flow-labs/vendorscore/schema"
)

const dataset = `vendors:
  - id: kr-1
    name: Busan Precision
    region: KR
    last_verified: 2026-06-01
  - id: cn-1
    name: Shenzhen Circuits
    region: CN
    last_verified: 2025-01-10
  - id: mx-1
    name: Monterrey Metals
    region: MX
    last_verified: 2026-05-20
parts:
  - {id: p1, vendor_id: kr-1, component_name: Battery Cell, unit_price: 10, freight_cost: 1, tariff_rate_pct: 5, lead_time_weeks: 3, transit_days: 5, shipping_mode: Air, monthly_capacity: 20000}
  - {id: p2, vendor_id: cn-1, component_name: Main PCB, unit_price: 8, freight_cost: 0.5, tariff_rate_pct: 25, lead_time_weeks: 6, transit_days: 40, shipping_mode: Ocean, monthly_capacity: 50000}
  - {id: p3, vendor_id: mx-1, component_name: Enclosure, unit_price: 12, freight_cost: 0.2, lead_time_weeks: 2, transit_days: 3, shipping_mode: Ground, monthly_capacity: 3000}
`

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringToString" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendors.yaml"), []byte(dataset), 0o644))
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)
	// pflag keeps appending into the map once --weight has been parsed, so
	// hand it a fresh one instead of nil.
	scoreWeights = map[string]string{}
	configFile = ""
	cfg, logger = nil, nil

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(append(args, "--log-level", "error"))
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScoreJSON(t *testing.T) {
	setup(t)

	out, err := run(t, "score", "--json")
	require.NoError(t, err)

	var res struct {
		Vendors []schema.VendorAnalysis `json:"vendors"`
		Summary schema.Summary          `json:"executive_summary"`
		Weights schema.Weights          `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	require.Len(t, res.Vendors, 3)
	assertDefaultWeights(t, res.Weights)
	assert.NotEmpty(t, res.Summary.Recommendation)

	var cn schema.VendorAnalysis
	for _, a := range res.Vendors {
		if a.Vendor.ID == "cn-1" {
			cn = a
		}
	}
	assert.True(t, cn.HasFlag(schema.FlagDelayRisk))
	assert.True(t, cn.HasFlag(schema.FlagStaleData))
}

func assertDefaultWeights(t *testing.T, got schema.Weights) {
	t.Helper()
	want := schema.DefaultWeights()
	for _, p := range schema.Pillars {
		assert.InDelta(t, want.Get(p), got.Get(p), 1e-9, string(p))
	}
}

func TestScoreTable(t *testing.T) {
	setup(t)

	out, err := run(t, "score", "--sort", "capacity", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "Shenzhen Circuits")
	assert.Contains(t, out, "50,000")
	assert.Contains(t, out, "RISK FLAGS")
	assert.Contains(t, out, "EXECUTIVE SUMMARY")

	out, err = run(t, "score", "--region", "xx")
	require.NoError(t, err)
	assert.Contains(t, out, "No vendors with parts matched.")
}

func TestScoreWeightOverride(t *testing.T) {
	setup(t)

	out, err := run(t, "score", "--json", "--weight", "capacity=1", "--weight", "total_cost=0", "--weight", "total_time=0", "--weight", "maturity=0")
	require.NoError(t, err)
	var res struct {
		Vendors []schema.VendorAnalysis `json:"vendors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "cn-1", res.Vendors[0].Vendor.ID)

	_, err = run(t, "score", "--weight", "speed=1")
	assert.ErrorContains(t, err, "unknown pillar")

	// Overrides from earlier runs do not carry over.
	out, err = run(t, "score", "--json")
	require.NoError(t, err)
	var plain struct {
		Vendors []schema.VendorAnalysis `json:"vendors"`
		Weights schema.Weights          `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plain))
	assertDefaultWeights(t, plain.Weights)

	_, err = run(t, "score", "--sort", "price")
	assert.ErrorContains(t, err, "unknown sort field")
}

func TestScoreMissingFile(t *testing.T) {
	setup(t)

	_, err := run(t, "score", "--file", "nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestRecordAndHistory(t *testing.T) {
	dir := setup(t)
	dsn := filepath.Join(dir, "history.db")

	out, err := run(t, "score", "--record", "--history-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 3 snapshots.")

	out, err = run(t, "history", "list", "kr-1", "--json", "--history-dsn", dsn)
	require.NoError(t, err)
	var h schema.History
	require.NoError(t, json.Unmarshal([]byte(out), &h), out)
	require.Len(t, h, 1)
	assert.Equal(t, "kr-1", h[0].VendorID)

	out, err = run(t, "history", "list", "kr-1", "--history-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "MONTH")

	out, err = run(t, "history", "prune", "--older-than", "1h", "--history-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 snapshots")

	_, err = run(t, "history", "list", "kr-1")
	assert.ErrorContains(t, err, "no snapshot store configured")
}

func TestRecordWithoutStore(t *testing.T) {
	setup(t)

	_, err := run(t, "score", "--record")
	assert.ErrorContains(t, err, "no history store configured")
}

func TestWeightsCommand(t *testing.T) {
	setup(t)
	t.Setenv("VENDORSCORE_WEIGHTS_CAPACITY", "0.6")

	out, err := run(t, "weights", "--json")
	require.NoError(t, err)
	var w schema.Weights
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	// 0.4/0.3/0.2/0.6 renormalized over 1.5.
	assert.InDelta(t, 0.4, w.Capacity, 1e-9)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)

	out, err = run(t, "weights")
	require.NoError(t, err)
	assert.Contains(t, out, "total_cost")
}

func TestConfigFile(t *testing.T) {
	dir := setup(t)
	conf := "source:\n  kind: ftp\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendorscore.yaml"), []byte(conf), 0o644))

	_, err := run(t, "weights")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source.kind")
}

func TestVersion(t *testing.T) {
	setup(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vendorscore "+schema.Version))
}
