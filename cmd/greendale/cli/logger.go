// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger returns a text logger when stderr is a terminal and
// a JSON logger otherwise, so piped output stays machine-parseable.
func NewCommandLogger(level slog.Level) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

func newLogger(w io.Writer, interactive bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if interactive {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
