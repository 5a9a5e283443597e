// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"net/http"

	"github.com/greendale-community/greendale/lib/schedule"
)

func (r *Router) handleCreateInvites(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	var in inviteRequest
	if !decode(w, req, &in) {
		return
	}
	if len(in.UserIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "user_ids must not be empty", Field: "user_ids"})
		return
	}
	report, err := r.rsvp.CreateInvites(req.Context(), caller(req), id, in.UserIDs)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	failed := report.Failed
	if failed == nil {
		failed = []schedule.UserID{}
	}
	writeJSON(w, http.StatusOK, inviteReportJSON{Invited: report.Invited, Failed: failed})
}

// handleInviteInfo answers only callers who can see the event.
func (r *Router) handleInviteInfo(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	if _, err := r.booking.Get(req.Context(), caller(req), id); err != nil {
		r.writeError(w, req, err)
		return
	}
	info, err := r.rsvp.Info(req.Context(), id)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	out := inviteInfoJSON{
		EventID:     info.EventID,
		MaxCapacity: info.MaxCapacity,
		Attending:   info.Attending,
		Pending:     info.Pending,
		Invited:     info.Invited(),
		Invitees:    make([]rsvpJSON, len(info.Invitees)),
	}
	for i, invitee := range info.Invitees {
		out.Invitees[i] = toRSVPJSON(invitee)
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Router) handleDeleteInvite(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	user, ok := pathID(req, "user")
	if !ok {
		badRequest(w, "invalid user id")
		return
	}
	if err := r.rsvp.DeleteInvite(req.Context(), caller(req), id, schedule.UserID(user)); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateRSVP records the caller's own response.
func (r *Router) handleUpdateRSVP(w http.ResponseWriter, req *http.Request) {
	id, ok := eventID(w, req)
	if !ok {
		return
	}
	var in rsvpRequest
	if !decode(w, req, &in) {
		return
	}
	row, err := r.rsvp.UpdateRSVP(req.Context(), id, caller(req), in.Status)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toRSVPJSON(row))
}
