// Package dashboard keeps the latest scoring run in memory for fast listing.
package dashboard

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/build-flow-labs/vendorscore/schema"
)

// ErrNotFound is returned by Get for an unknown vendor.
var ErrNotFound = errors.New("vendor not found")

// Listing limits.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Sort fields accepted by List.
const (
	SortFinalScore = "final_score"
	SortCost       = "total_cost"
	SortTime       = "total_time"
	SortMaturity   = "maturity"
	SortCapacity   = "capacity"
)

// Entry is a denormalized vendor summary for listing.
type Entry struct {
	Rank          int                `json:"rank"`
	VendorID      string             `json:"id"`
	Name          string             `json:"name"`
	Region        string             `json:"region"`
	FinalScore    float64            `json:"final_score"`
	Pillars       map[string]float64 `json:"pillar_scores"`
	AvgLandedCost float64            `json:"avg_landed_cost"`
	AvgTotalTime  float64            `json:"avg_total_time"`
	TotalCapacity int                `json:"total_capacity"`
	PartCount     int                `json:"part_count"`
	FlagCount     int                `json:"flag_count"`
	MaxSeverity   schema.Severity    `json:"max_severity,omitempty"`
	Stale         bool               `json:"stale"`
	LastVerified  schema.Date        `json:"last_verified"`

	components []string
	modes      []schema.ShippingMode
}

// ListOptions controls filtering, sorting and truncation.
type ListOptions struct {
	Region    string // exact region, case-insensitive
	Component string // component name substring, case-insensitive
	Mode      string // shipping mode of any part
	SortField string // one of the Sort* constants; default final_score
	Limit     int    // default 50, capped at 100
}

// Index is an in-memory store of the most recent scoring run.
type Index struct {
	mu        sync.RWMutex
	analyses  []schema.VendorAnalysis
	entries   []Entry
	summary   schema.Summary
	weights   schema.Weights
	updatedAt time.Time
	staleDays int
}

// NewIndex creates an empty index. staleDays marks entries whose vendor
// was last verified longer ago than that.
func NewIndex(staleDays int) *Index {
	return &Index{staleDays: staleDays}
}

// Replace swaps in a new run. analyses must already be ranked.
func (idx *Index) Replace(analyses []schema.VendorAnalysis, summary schema.Summary, weights schema.Weights, at time.Time) {
	entries := make([]Entry, len(analyses))
	for i, a := range analyses {
		entries[i] = newEntry(i+1, a, idx.staleDays, at)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.analyses = analyses
	idx.entries = entries
	idx.summary = summary
	idx.weights = weights
	idx.updatedAt = at
}

func newEntry(rank int, a schema.VendorAnalysis, staleDays int, now time.Time) Entry {
	e := Entry{
		Rank:          rank,
		VendorID:      a.Vendor.ID,
		Name:          a.Vendor.Name,
		Region:        a.Vendor.Region,
		FinalScore:    a.Score.FinalScore,
		Pillars:       make(map[string]float64, len(schema.Pillars)),
		AvgLandedCost: a.AvgLandedCost(),
		AvgTotalTime:  a.AvgTotalTime(),
		TotalCapacity: a.TotalMonthlyCapacity(),
		PartCount:     len(a.Parts),
		FlagCount:     len(a.Flags),
		MaxSeverity:   a.MaxSeverity(),
		LastVerified:  a.Vendor.LastVerified,
		Stale:         a.Vendor.LastVerified.IsZero() || a.Vendor.LastVerified.DaysSince(now) > staleDays,
	}
	for _, p := range schema.Pillars {
		e.Pillars[string(p)] = a.Score.Pillar(p)
	}
	for _, p := range a.Parts {
		e.components = append(e.components, strings.ToLower(p.ComponentName))
		e.modes = append(e.modes, p.Mode())
	}
	return e
}

// List returns entries matching opts.
func (idx *Index) List(opts ListOptions) []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	filtered := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if opts.Region != "" && !strings.EqualFold(e.Region, opts.Region) {
			continue
		}
		if opts.Component != "" && !e.hasComponent(opts.Component) {
			continue
		}
		if opts.Mode != "" && !e.hasMode(opts.Mode) {
			continue
		}
		filtered = append(filtered, e)
	}

	sortEntries(filtered, opts.SortField)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func (e Entry) hasComponent(sub string) bool {
	sub = strings.ToLower(sub)
	for _, c := range e.components {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

func (e Entry) hasMode(mode string) bool {
	want := schema.ParseShippingMode(mode)
	if want == "" {
		return false
	}
	for _, m := range e.modes {
		if m == want {
			return true
		}
	}
	return false
}

// Get returns the full analysis for a vendor.
func (idx *Index) Get(vendorID string) (schema.VendorAnalysis, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, a := range idx.analyses {
		if a.Vendor.ID == vendorID {
			return a, nil
		}
	}
	return schema.VendorAnalysis{}, ErrNotFound
}

// Analyses returns the ranked analyses of the current run.
func (idx *Index) Analyses() []schema.VendorAnalysis {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]schema.VendorAnalysis, len(idx.analyses))
	copy(out, idx.analyses)
	return out
}

// Summary returns the current run's summary.
func (idx *Index) Summary() schema.Summary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.summary
}

// Weights returns the weights the current run was scored with.
func (idx *Index) Weights() schema.Weights {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.weights
}

// UpdatedAt returns when the index was last replaced; zero if never.
func (idx *Index) UpdatedAt() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.updatedAt
}

// Count returns the number of indexed vendors.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// ValidSort reports whether field is an accepted sort field. The empty string
// and the legacy "reliability" name are accepted.
func ValidSort(field string) bool {
	switch field {
	case "", SortFinalScore, SortCost, SortTime, SortMaturity, SortCapacity, "reliability":
		return true
	}
	return false
}

// sortEntries orders cost and time ascending, everything else descending.
// Ties keep rank order.
func sortEntries(entries []Entry, field string) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch field {
		case SortCost:
			return a.AvgLandedCost < b.AvgLandedCost
		case SortTime:
			return a.AvgTotalTime < b.AvgTotalTime
		case SortMaturity, "reliability":
			return a.Pillars[string(schema.PillarMaturity)] > b.Pillars[string(schema.PillarMaturity)]
		case SortCapacity:
			return a.TotalCapacity > b.TotalCapacity
		default:
			return a.FinalScore > b.FinalScore
		}
	})
}
