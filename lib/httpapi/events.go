// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"net/http"
	"time"

	"github.com/greendale-community/greendale/lib/booking"
	"github.com/greendale-community/greendale/lib/recurrence"
	"github.com/greendale-community/greendale/lib/schedule"
)

func eventID(w http.ResponseWriter, req *http.Request) (schedule.EventID, bool) {
	id, ok := pathID(req, "id")
	if !ok {
		badRequest(w, "invalid event id")
	}
	return schedule.EventID(id), ok
}

func (r *Router) handleCreateEvent(w http.ResponseWriter, req *http.Request) {
	var in createEventRequest
	if !decode(w, req, &in) {
		return
	}
	kind, err := recurrence.ParseKind(string(in.RecurrenceType))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "recurrence_type"})
		return
	}
	rule := recurrence.Rule{Kind: kind}
	if in.RecurrenceEnd != "" {
		until, err := time.Parse(time.DateOnly, in.RecurrenceEnd)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "recurrence_end_date must be YYYY-MM-DD", Field: "recurrence_end_date"})
			return
		}
		rule.Until = until
	}

	result, err := r.booking.Create(req.Context(), booking.Draft{
		OwnerID:    caller(req),
		Details:    in.details(),
		Recurrence: rule,
	})
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	events := make([]eventJSON, len(result.Events))
	for i, event := range result.Events {
		events[i] = toEventJSON(event)
	}
	status := http.StatusCreated
	if len(events) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"events": events})
}

func (r *Router) handleGetEvent(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	event, err := r.booking.Get(req.Context(), caller(req), id)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(event))
}

func (r *Router) handleUpdateEvent(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	var in updateEventRequest
	if !decode(w, req, &in) {
		return
	}
	event, err := r.booking.Update(req.Context(), caller(req), id, booking.Changes{
		Details:   in.details(),
		Cancelled: in.Cancelled,
	})
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(event))
}

func (r *Router) handleDeleteEvent(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	if err := r.booking.Delete(req.Context(), caller(req), id); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleRestoreEvent(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	if err := r.booking.Restore(req.Context(), caller(req), id); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleListDeleted(w http.ResponseWriter, req *http.Request) {
	limit, ok := queryLimit(w, req)
	if !ok {
		return
	}
	deleted, err := r.booking.ListDeleted(req.Context(), caller(req), limit)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	out := make([]deletedEventJSON, len(deleted))
	for i, d := range deleted {
		out[i] = deletedEventJSON{eventJSON: toEventJSON(d.Event), Attending: d.Attending, Owned: d.Owned}
	}
	writeJSON(w, http.StatusOK, out)
}
