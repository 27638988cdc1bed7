package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/dashboard"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/datastore"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/score"
	"github.com/build-flow-labs/vendorscore/schema"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   schema.Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"runs":    s.runs.Load(),
		"vendors": s.index.Count(),
	}
	if t, ok := s.lastRunAt.Load().(time.Time); ok {
		status["last_run_at"] = t.Format(time.RFC3339)
	}
	if msg, ok := s.lastError.Load().(string); ok && msg != "" {
		status["last_error"] = msg
	}
	writeJSON(w, http.StatusOK, status)
}

func parseListOptions(r *http.Request) (dashboard.ListOptions, error) {
	q := r.URL.Query()
	opts := dashboard.ListOptions{
		Region:    q.Get("region"),
		Component: q.Get("component"),
		Mode:      q.Get("mode"),
		SortField: q.Get("sort"),
	}
	if !dashboard.ValidSort(opts.SortField) {
		return opts, fmt.Errorf("unknown sort field %q", opts.SortField)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("limit must be a positive integer")
		}
		opts.Limit = n
	}
	return opts, nil
}

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries := s.index.List(opts)

	sortField := opts.SortField
	if sortField == "" {
		sortField = dashboard.SortFinalScore
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vendors":           entries,
		"total":             len(entries),
		"executive_summary": s.index.Summary(),
		"filters_applied": map[string]string{
			"sort":      sortField,
			"component": opts.Component,
			"region":    opts.Region,
			"mode":      opts.Mode,
		},
		"generated_at": s.index.UpdatedAt(),
	})
}

type partDetail struct {
	schema.Part
	TotalLandedCost float64 `json:"total_landed_cost"`
	TotalTimeDays   int     `json:"total_time_days"`
}

type historyPoint struct {
	Date       schema.Date `json:"date"`
	ComputedAt time.Time   `json:"computed_at"`
	FinalScore float64     `json:"final_score"`
	LandedCost float64     `json:"avg_landed_cost"`
}

func (s *Server) handleVendorDetail(w http.ResponseWriter, r *http.Request) {
	a, err := s.index.Get(chi.URLParam(r, "vendorID"))
	if errors.Is(err, dashboard.ErrNotFound) {
		writeError(w, http.StatusNotFound, "vendor not found")
		return
	}

	parts := make([]partDetail, len(a.Parts))
	for i, p := range a.Parts {
		parts[i] = partDetail{Part: p, TotalLandedCost: p.TotalLandedCost(), TotalTimeDays: p.TotalTimeDays()}
	}

	history := make([]historyPoint, 0, len(a.History))
	for _, h := range a.History {
		history = append(history, historyPoint{
			Date:       h.SnapshotDate,
			ComputedAt: h.ComputedAt,
			FinalScore: h.FinalScore,
			LandedCost: h.Inputs.AvgLandedCost,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vendor": a.Vendor,
		"current_score": map[string]any{
			"id":            a.Score.ID,
			"final_score":   a.Score.FinalScore,
			"pillar_scores": pillarScores(a.Score),
			"contributions": score.Contributions(a.Score),
			"weights":       a.Score.Weights,
			"inputs":        a.Score.Inputs,
			"computed_at":   a.Score.ComputedAt,
		},
		"parts":            parts,
		"historical_trend": history,
		"risk_flags":       a.Flags,
		"metrics": map[string]any{
			"avg_landed_cost": a.AvgLandedCost(),
			"avg_total_time":  a.AvgTotalTime(),
			"total_capacity":  a.TotalMonthlyCapacity(),
			"part_count":      len(a.Parts),
		},
	})
}

func pillarScores(vs schema.VendorScore) map[schema.Pillar]float64 {
	out := make(map[schema.Pillar]float64, len(schema.Pillars))
	for _, p := range schema.Pillars {
		out[p] = vs.Pillar(p)
	}
	return out
}

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"weights":    s.runner.Engine().Weights(),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseWeights requires a number for every pillar. "reliability" may stand
// in for "maturity".
func parseWeights(body map[string]json.RawMessage) (schema.WeightsUpdate, error) {
	var u schema.WeightsUpdate
	for key, raw := range body {
		p, ok := schema.ParsePillar(key)
		if !ok {
			return u, fmt.Errorf("unknown weight %q", key)
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return u, fmt.Errorf("weight for %s must be a number", key)
		}
		if v < 0 {
			return u, fmt.Errorf("weight for %s must not be negative", key)
		}
		u.Set(p, v)
	}
	for _, p := range schema.Pillars {
		if _, ok := body[string(p)]; ok {
			continue
		}
		if p == schema.PillarMaturity {
			if _, ok := body["reliability"]; ok {
				continue
			}
		}
		return u, fmt.Errorf("missing weight for %s", p)
	}
	return u, nil
}

func (s *Server) handleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Weights map[string]json.RawMessage `json:"weights"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Weights == nil {
		writeError(w, http.StatusBadRequest, "missing weights in request body")
		return
	}
	u, err := parseWeights(req.Weights)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated := s.runner.Engine().UpdateWeights(u)
	writeJSON(w, http.StatusOK, map[string]any{
		"weights":    updated,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"message":    "Scoring weights updated successfully",
	})
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	res, err := s.Refresh(r.Context())
	if errors.Is(err, datastore.ErrSource) {
		s.logger.Error("recompute failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "unable to fetch vendor data")
		return
	}
	if err != nil {
		s.logger.Error("recompute failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recomputed":         len(res.Analyses),
		"snapshots_recorded": res.Recorded,
		"weights_used":       s.index.Weights(),
		"executive_summary":  res.Summary,
		"computed_at":        s.index.UpdatedAt(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"executive_summary": s.index.Summary(),
		"vendors":           s.index.Count(),
		"generated_at":      s.index.UpdatedAt(),
	})
}

type trendSeries struct {
	VendorID string    `json:"vendor_id"`
	Name     string    `json:"name"`
	Months   []string  `json:"months"`
	Scores   []float64 `json:"scores"`
}

// handleTrends returns each vendor's final-score series: stored history
// followed by the current score, trimmed to the last n points.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	n := 6
	if v := r.URL.Query().Get("points"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "points must be a positive integer")
			return
		}
		n = parsed
	}

	analyses := s.index.Analyses()
	series := make([]trendSeries, 0, len(analyses))
	for _, a := range analyses {
		points := append(a.History.Sorted(), a.Score)
		if len(points) > n {
			points = points[len(points)-n:]
		}
		ts := trendSeries{VendorID: a.Vendor.ID, Name: a.Vendor.Name}
		for _, p := range points {
			ts.Months = append(ts.Months, p.SnapshotDate.Format("2006-01"))
			ts.Scores = append(ts.Scores, p.FinalScore)
		}
		series = append(series, ts)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vendor_rankings": series,
		"generated_at":    s.index.UpdatedAt(),
	})
}
