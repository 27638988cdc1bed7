// Package pipeline runs one scoring pass: fetch the dataset, load history,
// score, record snapshots and summarize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/datastore"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/score"
	"github.com/build-flow-labs/vendorscore/schema"
)

// HistoryStore is the part of the snapshot store a run needs.
type HistoryStore interface {
	HistoryFor(ctx context.Context, vendorIDs []string) (map[string]schema.History, error)
	Append(ctx context.Context, scores []schema.VendorScore) error
}

// Runner wires a source, an engine and an optional history store.
type Runner struct {
	source datastore.Source
	engine *score.Engine
	store  HistoryStore
	logger *slog.Logger
}

// New creates a Runner. store may be nil, in which case every run scores
// without history and nothing is recorded.
func New(source datastore.Source, engine *score.Engine, store HistoryStore, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{source: source, engine: engine, store: store, logger: logger}
}

// Engine returns the runner's scoring engine.
func (r *Runner) Engine() *score.Engine { return r.engine }

// Options adjust a single run.
type Options struct {
	// Weights overrides the engine's current weights for this run only.
	Weights *schema.Weights
	// Record persists the new snapshots after scoring.
	Record bool
}

// Result is the outcome of a run.
type Result struct {
	Source   string                  `json:"source"`
	Analyses []schema.VendorAnalysis `json:"vendors"`
	Summary  schema.Summary          `json:"summary"`
	Vendors  int                     `json:"vendors_fetched"`
	Parts    int                     `json:"parts_fetched"`
	Recorded int                     `json:"snapshots_recorded"`
	Duration time.Duration           `json:"duration_ns"`
}

// Run performs one pass. A fetch failure aborts the run before anything is
// scored; a history read failure is logged and the run continues without
// history.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	ds, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s dataset: %w", r.source.Name(), err)
	}

	ids := make([]string, len(ds.Vendors))
	for i, v := range ds.Vendors {
		ids[i] = v.ID
	}

	var history map[string]schema.History
	if r.store != nil {
		history, err = r.store.HistoryFor(ctx, ids)
		if err != nil {
			r.logger.Warn("loading history failed, scoring without it", "error", err)
			history = nil
		}
	}

	weights := r.engine.Weights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	analyses := r.engine.ScoreWith(weights, ds.Vendors, ds.PartsByVendor(), history)

	res := &Result{
		Source:   r.source.Name(),
		Analyses: analyses,
		Summary:  r.engine.Summarize(analyses),
		Vendors:  len(ds.Vendors),
		Parts:    len(ds.Parts),
	}

	if opts.Record {
		if r.store == nil {
			return nil, errors.New("recording snapshots: no history store configured")
		}
		scores := make([]schema.VendorScore, len(analyses))
		for i, a := range analyses {
			scores[i] = a.Score
		}
		if err := r.store.Append(ctx, scores); err != nil {
			return nil, fmt.Errorf("recording snapshots: %w", err)
		}
		res.Recorded = len(scores)
	}

	res.Duration = time.Since(start)
	r.logger.Info("scoring run complete",
		"source", res.Source,
		"vendors", res.Vendors,
		"scored", len(res.Analyses),
		"recorded", res.Recorded,
		"duration", res.Duration,
	)
	return res, nil
}
