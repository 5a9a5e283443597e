// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/greendale-community/greendale/cmd/greendale/cli"
	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/config"
)

// exitSweepSkipped is the exit status of a sweep that found the lock
// held elsewhere.
const exitSweepSkipped = 2

type sweepOptions struct {
	history int
	json    bool
	out     io.Writer
	clock   clock.Clock
}

func runSweep(configPath string, options sweepOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return sweepOnce(ctx, cfg, options)
}

func sweepOnce(ctx context.Context, cfg *config.Config, options sweepOptions) error {
	if options.clock == nil {
		options.clock = clock.Real()
	}
	a, err := openApp(ctx, cfg, newLogger(cfg), options.clock)
	if err != nil {
		return err
	}
	defer a.Close()

	if options.history > 0 {
		return printHistory(ctx, a, options)
	}

	sweeper, err := a.sweeper()
	if err != nil {
		return err
	}
	result, err := sweeper.RunRetentionSweep(ctx)
	if err != nil {
		return err
	}
	if options.json {
		if err := json.NewEncoder(options.out).Encode(map[string]any{
			"success":       result.Ran,
			"run_id":        result.RunID,
			"deleted_count": result.DeletedCount,
			"message":       result.Message,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(options.out, result.Message)
	}
	if !result.Ran {
		return &cli.ExitError{Code: exitSweepSkipped}
	}
	return nil
}

func printHistory(ctx context.Context, a *app, options sweepOptions) error {
	runs, err := a.store.SweepRuns(ctx, options.history)
	if err != nil {
		return err
	}
	if options.json {
		return json.NewEncoder(options.out).Encode(runs)
	}
	tw := tabwriter.NewWriter(options.out, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tHOLDER\tSTARTED\tDURATION\tDELETED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			run.ID, run.Holder, run.StartedAt.Format(time.RFC3339),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), len(run.Deleted))
	}
	return tw.Flush()
}
