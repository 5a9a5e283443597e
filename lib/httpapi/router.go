// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpapi serves the booking, invite, RSVP and retention
// operations as a JSON API.
//
// Authentication is a front proxy's job. The proxy forwards the
// authenticated user ID in the X-Greendale-User header; requests
// without it are rejected with 401.
//
// Error responses are {"error": "..."} objects. Validation failures
// answer 400, conflicts and full events 409, permission failures 403
// and missing or hidden events 404. Storage failures answer 500 with a
// generic message; the detail goes to the log only.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/greendale-community/greendale/lib/booking"
	"github.com/greendale-community/greendale/lib/lifecycle"
	"github.com/greendale-community/greendale/lib/rsvp"
	"github.com/greendale-community/greendale/lib/schedule"
)

// UserHeader carries the caller's user ID.
const UserHeader = "X-Greendale-User"

// SweepHistory reads recorded sweeps. *store.Store implements it.
type SweepHistory interface {
	SweepRuns(ctx context.Context, limit int) ([]schedule.SweepRun, error)
}

// Config wires the router to the core.
type Config struct {
	Booking *booking.Orchestrator
	RSVP    *rsvp.Manager

	// Sweeper serves POST /admin/sweep and History serves
	// GET /admin/sweeps. Both answer 403 unless AllowManualSweep.
	Sweeper          lifecycle.Runner
	History          SweepHistory
	AllowManualSweep bool

	Logger *slog.Logger
}

// Router is the API's http.Handler.
type Router struct {
	mux         *chi.Mux
	booking     *booking.Orchestrator
	rsvp        *rsvp.Manager
	sweeper     lifecycle.Runner
	history     SweepHistory
	allowSweeps bool
	logger      *slog.Logger
}

// NewRouter validates cfg and builds the route table.
func NewRouter(cfg Config) (*Router, error) {
	switch {
	case cfg.Booking == nil:
		return nil, fmt.Errorf("httpapi: Booking is required")
	case cfg.RSVP == nil:
		return nil, fmt.Errorf("httpapi: RSVP is required")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("httpapi: Logger is required")
	case cfg.AllowManualSweep && (cfg.Sweeper == nil || cfg.History == nil):
		return nil, fmt.Errorf("httpapi: AllowManualSweep needs Sweeper and History")
	}
	r := &Router{
		mux:         chi.NewRouter(),
		booking:     cfg.Booking,
		rsvp:        cfg.RSVP,
		sweeper:     cfg.Sweeper,
		history:     cfg.History,
		allowSweeps: cfg.AllowManualSweep,
		logger:      cfg.Logger,
	}
	r.routes()
	return r, nil
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) routes() {
	r.mux.Use(middleware.RequestID)
	r.mux.Use(r.logRequests)
	r.mux.Use(middleware.Recoverer)

	r.mux.Route("/events", func(events chi.Router) {
		events.Use(requireUser)
		events.Post("/", r.handleCreateEvent)
		events.Get("/", r.handleListEvents)
		events.Get("/deleted", r.handleListDeleted)
		events.Get("/upcoming", r.handleUpcoming)
		events.Get("/attending", r.handleAttending)
		events.Get("/managed", r.handleManaged)
		events.Get("/history", r.handleHistory)

		events.Route("/{id}", func(event chi.Router) {
			event.Get("/", r.handleGetEvent)
			event.Put("/", r.handleUpdateEvent)
			event.Delete("/", r.handleDeleteEvent)
			event.Post("/restore", r.handleRestoreEvent)

			event.Get("/invites", r.handleInviteInfo)
			event.Post("/invites", r.handleCreateInvites)
			event.Delete("/invites/{user}", r.handleDeleteInvite)
			event.Post("/rsvp", r.handleUpdateRSVP)
		})
	})

	r.mux.Route("/admin", func(admin chi.Router) {
		admin.Use(r.requireManualSweep)
		admin.Post("/sweep", r.handleSweep)
		admin.Get("/sweeps", r.handleSweepHistory)
	})
}

// logRequests writes one line per request once the response is done.
func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		r.logger.Debug("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(req.Context()),
		)
	})
}
