// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command-tree framework behind the greendale
// binary: nested [Command] values with pflag flag sets, generated help
// and typo suggestions for unknown commands and flags.
package cli
