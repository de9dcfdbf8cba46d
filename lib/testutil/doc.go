// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for square stream
// packages.
//
// [SequentialSquares] builds deterministic squares whose cells are all
// distinct across the whole batch, so a reordered, dropped, or
// duplicated record is always visible in a comparison.
//
// [WriteRecords] writes raw binary records with square.EncodeSquare,
// bypassing squareio, so reader tests do not depend on the writer
// under test. [RequireSquares] compares batches and reports the first
// differing square.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package depends only on lib/square.
package testutil
