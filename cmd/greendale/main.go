// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Command greendale runs the Greendale scheduling service and its
// maintenance tasks.
//
//	greendale serve     # HTTP API plus the scheduled retention sweep
//	greendale sweep     # one retention sweep, then exit
//	greendale version
package main

import (
	"os"

	"github.com/greendale-community/greendale/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that already printed their outcome carry an exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	return root().Execute(os.Args[1:])
}
