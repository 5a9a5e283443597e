// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/greendale-community/greendale/cmd/greendale/cli"
	"github.com/greendale-community/greendale/lib/config"
	"github.com/greendale-community/greendale/lib/version"
)

func root() *cli.Command {
	return &cli.Command{
		Name:        "greendale",
		Description: "Greendale books rooms and people into events and keeps the calendar free of double bookings.",
		Subcommands: []*cli.Command{
			serveCommand(),
			sweepCommand(),
			versionCommand(),
		},
	}
}

func configFlag(flagSet *pflag.FlagSet, path *string) {
	flagSet.StringVarP(path, "config", "c", "",
		fmt.Sprintf("configuration file (default $%s, or built-in development defaults)", config.EnvVar))
}

func serveCommand() *cli.Command {
	var configPath, listen string
	return &cli.Command{
		Name:    "serve",
		Summary: "Serve the HTTP API and run the scheduled retention sweep",
		Description: `Serve the JSON HTTP API and, unless retention.disabled is set, run
the retention sweep on its cron schedule until interrupted.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			flagSet.StringVar(&listen, "listen", "", "listen address, overriding http.listen")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Serve with a production config", Command: "greendale serve --config /etc/greendale/greendale.yaml"},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return runServe(configPath, listen)
		},
	}
}

func sweepCommand() *cli.Command {
	var (
		configPath string
		history    int
		asJSON     bool
	)
	return &cli.Command{
		Name:    "sweep",
		Summary: "Run one retention sweep, or show past sweeps",
		Description: `Permanently delete events that have been soft-deleted for longer than
retention.window, then exit. Exits 2 without deleting anything when
another process holds the sweep lock.

With --history, print recorded sweeps instead of running one.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sweep", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			flagSet.IntVar(&history, "history", 0, "print the last N recorded sweeps and exit")
			flagSet.BoolVar(&asJSON, "json", false, "print JSON instead of text")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if history < 0 {
				return fmt.Errorf("--history must not be negative")
			}
			return runSweep(configPath, sweepOptions{history: history, json: asJSON, out: os.Stdout})
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Run: func([]string) error {
			fmt.Printf("greendale %s\n", version.Full())
			return nil
		},
	}
}
