// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/greendale-community/greendale/lib/schedule"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type conflictBody struct {
	Error     string        `json:"error"`
	Conflicts []warningJSON `json:"conflicts"`
}

type capacityBody struct {
	Error       string `json:"error"`
	MaxCapacity int    `json:"max_capacity"`
	Attending   int    `json:"attending"`
	Pending     int    `json:"pending"`
	Requested   int    `json:"requested"`
	Remaining   int    `json:"remaining"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}

// queryLimit reads the optional limit parameter. Absent means 0,
// which the core replaces with its own default.
func queryLimit(w http.ResponseWriter, req *http.Request) (int, bool) {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer", Field: "limit"})
		return 0, false
	}
	return n, true
}

// decode reads a JSON body, rejecting unknown fields.
func decode(w http.ResponseWriter, req *http.Request, v any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeError maps the error taxonomy onto status codes.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var (
		validation *schedule.ValidationError
		conflict   *schedule.ConflictError
		full       *schedule.CapacityError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &conflict):
		body := conflictBody{Error: "scheduling conflict", Conflicts: make([]warningJSON, len(conflict.Warnings))}
		for i, warning := range conflict.Warnings {
			body.Conflicts[i] = toWarningJSON(warning)
		}
		writeJSON(w, http.StatusConflict, body)
	case errors.As(err, &full):
		writeJSON(w, http.StatusConflict, capacityBody{
			Error:       full.Error(),
			MaxCapacity: full.Max,
			Attending:   full.Attending,
			Pending:     full.Pending,
			Requested:   full.Requested,
			Remaining:   full.Remaining(),
		})
	case errors.Is(err, schedule.ErrPermission):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "not allowed to manage this event"})
	case errors.Is(err, schedule.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		r.logger.Error("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
