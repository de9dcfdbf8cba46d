// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package square defines the shape of a square stream and the codecs
// that move one square between its in-memory form and its text or
// binary record.
//
// A [Config] fixes the order, the cell count (order²), and the origin
// for every square in a stream. A [Square] is a plain []int in
// row-major order; callers allocate one with [Config.NewSquare] and
// reuse it.
//
// Text records are one line of whitespace-separated integers:
//
//	err := square.ParseLine(config, "1 2 3 4 5 6 7 8 9", sq)
//	line, err := square.FormatLine(config, sq)
//
// Binary records are headerless runs of cells under a [Width]:
//
//   - [Portable] -- 4-byte little-endian two's complement, the
//     interchange format
//   - [Host] -- native int width and byte order, fast but tied to the
//     machine that wrote it
//
// Errors carry an [ErrorKind] ([KindConfig], [KindParse],
// [KindTruncated], ...) retrievable with [KindOf]. Nothing in this
// package validates magic-square properties; the codecs only move
// numbers.
//
// This package has no dependencies on other packages in this module.
package square
