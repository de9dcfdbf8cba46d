// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Config returns a square.Config or fails the test.
func Config(t TB, order int, origin square.Origin) square.Config {
	t.Helper()
	config, err := square.NewConfig(order, origin)
	if err != nil {
		t.Fatalf("square.NewConfig(%d, %d): %v", order, origin, err)
	}
	return config
}

// SequentialSquares returns count squares of config's shape. Square k
// holds origin + k*CellCount + i at cell i, so every cell in the batch
// is distinct.
func SequentialSquares(config square.Config, count int) []square.Square {
	squares := make([]square.Square, count)
	for k := range squares {
		sq := config.NewSquare()
		for i := range sq {
			sq[i] = int(config.Origin()) + k*config.CellCount() + i
		}
		squares[k] = sq
	}
	return squares
}

// WriteRecords writes squares to a new file in dir as concatenated
// binary records and returns its path. extra bytes are appended after
// the last record to build truncated inputs.
func WriteRecords(t TB, dir string, config square.Config, width square.Width, squares []square.Square, extra ...byte) string {
	t.Helper()
	var data []byte
	for k, sq := range squares {
		record, err := square.EncodeSquare(config, sq, width)
		if err != nil {
			t.Fatalf("encoding square %d: %v", k, err)
		}
		data = append(data, record...)
	}
	data = append(data, extra...)

	file, err := os.CreateTemp(dir, "squares-*.bin")
	if err != nil {
		t.Fatalf("creating record file: %v", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		t.Fatalf("writing record file: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("closing record file: %v", err)
	}
	return file.Name()
}

// ReadRecords decodes every whole record in path. It fails the test if
// the file length is not a multiple of the record size.
func ReadRecords(t TB, path string, config square.Config, width square.Width) []square.Square {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", filepath.Base(path), err)
	}
	recordSize := config.RecordSize(width)
	if len(data)%recordSize != 0 {
		t.Fatalf("%s is %d bytes, not a multiple of record size %d", filepath.Base(path), len(data), recordSize)
	}
	squares := make([]square.Square, 0, len(data)/recordSize)
	for offset := 0; offset < len(data); offset += recordSize {
		sq := config.NewSquare()
		if err := square.DecodeSquare(config, data[offset:], width, sq); err != nil {
			t.Fatalf("decoding record at offset %d: %v", offset, err)
		}
		squares = append(squares, sq)
	}
	return squares
}

// RequireSquares fails the test unless got and want hold the same
// squares in the same order.
func RequireSquares(t TB, got, want []square.Square) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d squares, want %d", len(got), len(want))
	}
	for k := range want {
		if !slices.Equal(got[k], want[k]) {
			t.Fatalf("square %d = %v, want %v", k, got[k], want[k])
		}
	}
}
