// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// Exit statuses.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError attaches an explicit exit code to an error. When Err is
// nil the command has already written its own output and main exits
// with Code without printing anything.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Usage wraps err so that it exits with [ExitUsage].
func Usage(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit
// status. An explicit [ExitError] wins; otherwise usage errors from
// the square packages exit 2 and everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if square.IsKind(err, square.KindUsage) {
		return ExitUsage
	}
	return ExitFailure
}
