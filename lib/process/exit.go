// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for Greendale binaries.
package process

import (
	"fmt"
	"os"
)

// Fatal prints err to stderr and exits 1. main uses it for errors
// returned by run, before or after the logger exists.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
