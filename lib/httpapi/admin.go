// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import "net/http"

const defaultHistoryLimit = 20

func (r *Router) requireManualSweep(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.allowSweeps {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "manual sweeps are disabled in this environment"})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) handleSweep(w http.ResponseWriter, req *http.Request) {
	result, err := r.sweeper.RunRetentionSweep(req.Context())
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResultJSON{
		Success:      result.Ran,
		RunID:        result.RunID,
		DeletedCount: result.DeletedCount,
		Message:      result.Message,
	})
}

func (r *Router) handleSweepHistory(w http.ResponseWriter, req *http.Request) {
	limit, ok := queryLimit(w, req)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	runs, err := r.history.SweepRuns(req.Context(), limit)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	out := make([]sweepRunJSON, len(runs))
	for i, run := range runs {
		out[i] = sweepRunJSON{
			ID:         run.ID,
			Holder:     run.Holder,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Cutoff:     run.Cutoff,
			Deleted:    run.Deleted,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
