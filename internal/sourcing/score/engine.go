// Package score ranks vendors on four pillars (landed cost, total time,
// maturity and capacity) and attaches risk flags to each result.
//
// Each pillar is normalized relative to the batch being scored: raw values
// are winsorized at the 5th/95th percentiles and min-max scaled, with cost
// and time inverted so lower is better. The final score is the weighted sum
// of the four pillar scores and always lies in [0,1].
package score

import (
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/build-flow-labs/vendorscore/normalize"
	"github.com/build-flow-labs/vendorscore/schema"
)

// Engine scores vendor batches. It is safe for concurrent use; weight
// updates replace the weight set atomically.
type Engine struct {
	weights    atomic.Pointer[schema.Weights]
	thresholds Thresholds
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights sets the initial weights. They are normalized.
func WithWeights(w schema.Weights) Option {
	return func(e *Engine) {
		n := w.Normalized()
		e.weights.Store(&n)
	}
}

// WithThresholds overrides the risk rule thresholds.
func WithThresholds(th Thresholds) Option {
	return func(e *Engine) { e.thresholds = th }
}

// WithClock sets the time source used for staleness, audit age and
// snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc sets the snapshot ID generator.
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine with default weights and thresholds.
func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	w := schema.DefaultWeights().Normalized()
	e.weights.Store(&w)
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// Weights returns the current normalized weights.
func (e *Engine) Weights() schema.Weights {
	return *e.weights.Load()
}

// Thresholds returns the risk thresholds in use.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// UpdateWeights applies a partial update, renormalizes, and returns the new
// weights. Pillars missing from u keep their current value.
func (e *Engine) UpdateWeights(u schema.WeightsUpdate) schema.Weights {
	for {
		cur := e.weights.Load()
		next := cur.Apply(u)
		if e.weights.CompareAndSwap(cur, &next) {
			e.logger.Info("updated scoring weights",
				"total_cost", next.Cost,
				"total_time", next.Time,
				"maturity", next.Maturity,
				"capacity", next.Capacity,
			)
			return next
		}
	}
}

// SetWeights replaces the weights with a normalized copy of w.
func (e *Engine) SetWeights(w schema.Weights) schema.Weights {
	n := w.Normalized()
	e.weights.Store(&n)
	return n
}

// Score ranks vendors with the current weights. See ScoreWith.
func (e *Engine) Score(vendors []schema.Vendor, partsByVendor map[string][]schema.Part, history map[string]schema.History) []schema.VendorAnalysis {
	return e.ScoreWith(e.Weights(), vendors, partsByVendor, history)
}

// ScoreWith ranks vendors using w, normalized first.
//
// Vendors without parts are omitted. The result is sorted by final score
// descending; ties keep input order. An empty slice is returned when no
// vendor has parts.
func (e *Engine) ScoreWith(w schema.Weights, vendors []schema.Vendor, partsByVendor map[string][]schema.Part, history map[string]schema.History) []schema.VendorAnalysis {
	w = w.Normalized()
	now := e.now()

	metrics := make([]vendorMetrics, 0, len(vendors))
	for _, v := range vendors {
		parts := partsByVendor[v.ID]
		if len(parts) == 0 {
			e.logger.Debug("skipping vendor without parts", "vendor", v.ID)
			continue
		}
		metrics = append(metrics, aggregate(v, parts, now))
	}
	if len(metrics) == 0 {
		return []schema.VendorAnalysis{}
	}

	costs := make([]float64, len(metrics))
	times := make([]float64, len(metrics))
	capacities := make([]float64, len(metrics))
	maturities := make([]float64, len(metrics))
	for i, m := range metrics {
		costs[i] = m.avgCost
		times[i] = m.avgTime
		capacities[i] = float64(m.capacity)
		maturities[i] = m.maturity
	}
	costScores := normalize.Column(costs, true)
	timeScores := normalize.Column(times, true)
	capacityScores := normalize.Column(capacities, false)
	maturityScores := normalize.Column(maturities, false)

	snapshot := schema.NewDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))

	analyses := make([]schema.VendorAnalysis, 0, len(metrics))
	for i, m := range metrics {
		s := schema.VendorScore{
			ID:            e.newID(),
			VendorID:      m.vendor.ID,
			VendorName:    m.vendor.Name,
			CostScore:     costScores[i],
			TimeScore:     timeScores[i],
			MaturityScore: maturityScores[i],
			CapacityScore: capacityScores[i],
			Weights:       w,
			Inputs:        m.inputs(),
			ComputedAt:    now,
			SnapshotDate:  snapshot,
		}
		s.FinalScore = clamp01(w.Cost*s.CostScore +
			w.Time*s.TimeScore +
			w.Maturity*s.MaturityScore +
			w.Capacity*s.CapacityScore)

		hist := history[m.vendor.ID].Sorted()
		analyses = append(analyses, schema.VendorAnalysis{
			Vendor:  m.vendor,
			Parts:   m.parts,
			Score:   s,
			History: hist,
			Flags: EvaluateRisk(RiskInput{
				Vendor:  m.vendor,
				Parts:   m.parts,
				Score:   s,
				History: hist,
			}, e.thresholds, now),
		})
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].Score.FinalScore > analyses[j].Score.FinalScore
	})

	e.logger.Info("scored vendors",
		"count", len(analyses),
		"skipped", len(vendors)-len(analyses),
		"top_vendor", analyses[0].Vendor.Name,
		"top_score", analyses[0].Score.FinalScore,
	)
	return analyses
}

// Contributions returns weight times pillar score for each pillar, using the
// weights captured in s.
func Contributions(s schema.VendorScore) map[schema.Pillar]float64 {
	out := make(map[schema.Pillar]float64, len(schema.Pillars))
	for _, p := range schema.Pillars {
		out[p] = s.Weights.Get(p) * s.Pillar(p)
	}
	return out
}
