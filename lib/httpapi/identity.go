// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greendale-community/greendale/lib/schedule"
)

type userKey struct{}

// requireUser rejects requests without a positive user ID header and
// stores the ID in the request context.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw := req.Header.Get(UserHeader)
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid " + UserHeader + " header"})
			return
		}
		ctx := context.WithValue(req.Context(), userKey{}, schedule.UserID(id))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func caller(req *http.Request) schedule.UserID {
	id, _ := req.Context().Value(userKey{}).(schedule.UserID)
	return id
}

// pathID parses a positive integer URL parameter.
func pathID(req *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, name), 10, 64)
	return id, err == nil && id > 0
}
