// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package convert rewrites a file of magic squares from one counting
// origin to the other.
//
// [Run] opens the input and output with [squareio] in the requested
// format and compression, adds the origin shift (+1 for 0-origin input,
// -1 for 1-origin input) to every cell, and writes the squares back out
// in the same order. After a successful run it reports the output's
// size and BLAKE3 digest and, if asked, records both files in a
// [manifest.Manifest].
package convert
