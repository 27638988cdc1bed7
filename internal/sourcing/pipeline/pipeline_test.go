package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/datastore"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/history"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/score"
	"github.com/build-flow-labs/vendorscore/schema"
)

var testNow = time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	ds  *datastore.Dataset
	err error
}

func (f fakeSource) Name() string { return "fake" }

func (f fakeSource) Fetch(context.Context) (*datastore.Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ds, nil
}

type failingStore struct{}

func (failingStore) HistoryFor(context.Context, []string) (map[string]schema.History, error) {
	return nil, errors.New("db down")
}

func (failingStore) Append(context.Context, []schema.VendorScore) error {
	return errors.New("db down")
}

func dataset(cost float64) *datastore.Dataset {
	verified := schema.NewDate(testNow.AddDate(0, 0, -10))
	return &datastore.Dataset{
		Vendors: []schema.Vendor{
			{ID: "a", Name: "Alpha", Region: "US", LastVerified: verified},
			{ID: "b", Name: "Bravo", Region: "CN", LastVerified: verified},
		},
		Parts: []schema.Part{
			{ID: "pa", VendorID: "a", UnitPrice: cost, LeadTimeWeeks: 2, TransitDays: 3, ShippingMode: schema.ShippingGround, MonthlyCapacity: 10000},
			{ID: "pb", VendorID: "b", UnitPrice: 20, LeadTimeWeeks: 4, TransitDays: 20, ShippingMode: schema.ShippingOcean, MonthlyCapacity: 8000},
		},
	}
}

func newEngine(now time.Time) *score.Engine {
	return score.New(score.WithClock(func() time.Time { return now }))
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunWithoutStore(t *testing.T) {
	r := New(fakeSource{ds: dataset(10)}, newEngine(testNow), nil, nil)

	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Analyses, 2)
	assert.Equal(t, "a", res.Analyses[0].Vendor.ID)
	assert.Equal(t, "fake", res.Source)
	assert.Equal(t, 2, res.Vendors)
	assert.Equal(t, 0, res.Recorded)
	assert.NotEmpty(t, res.Summary.Summary)

	_, err = r.Run(context.Background(), Options{Record: true})
	assert.Error(t, err)
}

func TestRunFetchFailure(t *testing.T) {
	srcErr := &datastore.SourceError{Source: "fake", Op: "query", Status: 503, Err: errors.New("unavailable")}
	r := New(fakeSource{err: srcErr}, newEngine(testNow), nil, nil)

	res, err := r.Run(context.Background(), Options{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, datastore.ErrSource)
}

func TestRunWeightsOverride(t *testing.T) {
	engine := newEngine(testNow)
	r := New(fakeSource{ds: dataset(10)}, engine, nil, nil)

	capacityOnly := schema.Weights{Capacity: 5}
	res, err := r.Run(context.Background(), Options{Weights: &capacityOnly})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Analyses[0].Score.Weights.Capacity)
	// The engine's own weights are untouched.
	assert.Equal(t, schema.DefaultWeights(), engine.Weights())
}

func TestRunRecordsAndDetectsSpike(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for months := 2; months >= 1; months-- {
		prior := New(fakeSource{ds: dataset(10)}, newEngine(testNow.AddDate(0, -months, 0)), store, nil)
		res, err := prior.Run(ctx, Options{Record: true})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Recorded)
	}

	// Alpha's landed cost rises 10 -> 13, a 30% month-over-month spike.
	current := New(fakeSource{ds: dataset(13)}, newEngine(testNow), store, nil)
	res, err := current.Run(ctx, Options{Record: true})
	require.NoError(t, err)

	var alpha schema.VendorAnalysis
	for _, a := range res.Analyses {
		if a.Vendor.ID == "a" {
			alpha = a
		}
	}
	require.Len(t, alpha.History, 2)

	var spike *schema.RiskFlag
	for i := range alpha.Flags {
		if alpha.Flags[i].Type == schema.FlagCostSpike {
			spike = &alpha.Flags[i]
		}
	}
	require.NotNil(t, spike)
	assert.Equal(t, schema.SeverityHigh, spike.Severity)
	assert.InDelta(t, 0.3, spike.Value, 1e-9)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestRunHistoryFailureIsNotFatal(t *testing.T) {
	r := New(fakeSource{ds: dataset(10)}, newEngine(testNow), failingStore{}, nil)

	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Analyses, 2)

	_, err = r.Run(context.Background(), Options{Record: true})
	assert.ErrorContains(t, err, "db down")
}
