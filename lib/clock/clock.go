// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the wall clock for testability. Production code
// injects Real(); tests inject Fake() so recorded timestamps and
// durations are deterministic.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t. Equivalent to
	// time.Since.
	Since(t time.Time) time.Duration
}
