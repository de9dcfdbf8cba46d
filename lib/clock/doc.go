// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock for testability.
//
// Code that records timestamps or measures durations accepts a Clock
// instead of calling time.Now or time.Since directly. In production,
// Real() provides the standard library behavior. In tests, Fake()
// provides a clock that moves only when told to:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c.Step(time.Second) // each Now reading is one second after the last
package clock
