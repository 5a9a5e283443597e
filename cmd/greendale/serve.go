// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/greendale-community/greendale/lib/booking"
	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/httpapi"
	"github.com/greendale-community/greendale/lib/lifecycle"
	"github.com/greendale-community/greendale/lib/rsvp"
)

const shutdownTimeout = 10 * time.Second

func runServe(configPath, listen string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.HTTP.Listen = listen
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger, clock.Real())
	if err != nil {
		return err
	}
	defer a.Close()

	orchestrator, err := booking.New(booking.Config{
		Store:   a.store,
		Rooms:   a.store,
		Friends: a.store,
		Clock:   a.clock,
		Logger:  logger.With("component", "booking"),
	})
	if err != nil {
		return err
	}
	invites, err := rsvp.NewManager(rsvp.Config{
		Store:   a.store,
		Friends: a.store,
		Clock:   a.clock,
		Logger:  logger.With("component", "rsvp"),
	})
	if err != nil {
		return err
	}
	sweeper, err := a.sweeper()
	if err != nil {
		return err
	}
	router, err := httpapi.NewRouter(httpapi.Config{
		Booking:          orchestrator,
		RSVP:             invites,
		Sweeper:          sweeper,
		History:          a.store,
		AllowManualSweep: cfg.ManualSweepAllowed(),
		Logger:           logger.With("component", "http"),
	})
	if err != nil {
		return err
	}

	schedulerDone := make(chan error, 1)
	if cfg.Retention.Disabled {
		logger.Warn("scheduled retention sweep disabled")
		schedulerDone <- nil
	} else {
		scheduler, err := newScheduler(a, sweeper)
		if err != nil {
			return err
		}
		go func() { schedulerDone <- scheduler.Run(ctx) }()
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverDone := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", cfg.HTTP.Listen)
		serverDone <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverDone:
		stop()
		<-schedulerDone
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := <-serverDone; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
	}
	if err := <-schedulerDone; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("retention scheduler: %w", err)
	}
	return nil
}

func newScheduler(a *app, sweeper *lifecycle.Sweeper) (*lifecycle.Scheduler, error) {
	schedule, err := a.config.SweepSchedule()
	if err != nil {
		return nil, err
	}
	delay, runOnStart := a.config.StartupSweep()
	return lifecycle.NewScheduler(lifecycle.SchedulerConfig{
		Runner:       sweeper,
		Schedule:     schedule,
		RunOnStart:   runOnStart,
		StartupDelay: delay,
		Clock:        a.clock,
		Logger:       a.logger.With("component", "retention"),
	})
}
