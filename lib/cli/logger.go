// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr at the given
// level. When stderr is a terminal, uses slog.TextHandler for
// human-readable output. When stderr is piped or redirected (CI,
// scripts, batch jobs), uses slog.JSONHandler so run summaries can be
// collected by machine.
//
// Callers scope the logger with run-specific context via With():
//
//	logger := cli.NewCommandLogger(slog.LevelInfo).With(
//	    "input", inputPath,
//	    "order", order,
//	)
func NewCommandLogger(level slog.Leveler) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

func newLogger(w io.Writer, terminal bool, level slog.Leveler) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
