// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/greendale-community/greendale/lib/schedule"
)

// handleListEvents serves GET /events. The range is either from and to
// as RFC 3339 instants or a single UTC date.
func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	var iv schedule.Interval
	if raw := query.Get("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD", Field: "date"})
			return
		}
		iv = schedule.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	} else {
		for _, bound := range []struct {
			name string
			dst  *time.Time
		}{{"from", &iv.Start}, {"to", &iv.End}} {
			raw := query.Get(bound.name)
			if raw == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: bound.name + " must be an RFC 3339 time", Field: bound.name})
				return
			}
			*bound.dst = t
		}
	}

	listings, err := r.booking.List(req.Context(), caller(req), iv)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingsJSON(listings))
}

type listFunc func(ctx context.Context, user schedule.UserID, limit int) ([]schedule.Listing, error)

// serveLimited answers one of the per-user views that take ?limit.
func (r *Router) serveLimited(w http.ResponseWriter, req *http.Request, list listFunc) {
	limit, ok := queryLimit(w, req)
	if !ok {
		return
	}
	listings, err := list(req.Context(), caller(req), limit)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingsJSON(listings))
}

func (r *Router) handleUpcoming(w http.ResponseWriter, req *http.Request) {
	r.serveLimited(w, req, r.booking.Upcoming)
}

func (r *Router) handleAttending(w http.ResponseWriter, req *http.Request) {
	r.serveLimited(w, req, r.booking.Attending)
}

func (r *Router) handleManaged(w http.ResponseWriter, req *http.Request) {
	r.serveLimited(w, req, r.booking.Managed)
}

func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) {
	r.serveLimited(w, req, r.booking.History)
}
