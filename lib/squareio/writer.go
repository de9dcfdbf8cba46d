// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package squareio

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// Writer accepts squares one at a time and appends their binary
// records to a file. Records are encoded straight into an output
// buffer of bufferSquares records, which is written to the file each
// time it fills and once more on Close.
//
// Callers must Close a Writer on every path, including error paths;
// squares still in the buffer are lost otherwise. A Writer is not safe
// for concurrent use.
type Writer struct {
	file   *os.File
	sink   io.WriteCloser
	logger *slog.Logger

	config     square.Config
	width      square.Width
	recordSize int

	capacity int
	buffer   []byte // len is the pending bytes; allocated on first write

	failed error // sticky error from a flush
	closed bool

	written int
	flushes int
	bytes   int64
}

// OpenWriter opens path for sequential writing of config-shaped squares
// under width. Pass Overwrite for create-or-truncate semantics.
func OpenWriter(path string, flags OpenFlag, config square.Config, width square.Width, opts ...Option) (*Writer, error) {
	if config.CellCount() == 0 {
		return nil, square.Errorf(square.KindUsage, "open writer", "zero Config; construct it with square.NewConfig")
	}
	settings := applyOptions(opts)
	recordSize := config.RecordSize(width)
	capacity, err := settings.resolveCapacity("open writer", recordSize)
	if err != nil {
		return nil, err
	}

	file, sink, err := openOutput(path, flags, settings.compression)
	if err != nil {
		return nil, err
	}

	return &Writer{
		file:       file,
		sink:       sink,
		logger:     settings.logger.With("path", path, "width", width.String()),
		config:     config,
		width:      width,
		recordSize: recordSize,
		capacity:   capacity,
	}, nil
}

// SetBufferCapacity sets how many squares are buffered between
// flushes. It must be called before the first WriteNext.
func (w *Writer) SetBufferCapacity(squares int) error {
	if w.closed {
		return square.Wrap(square.KindUsage, "set buffer capacity", square.ErrClosed)
	}
	if w.buffer != nil {
		return square.Errorf(square.KindUsage, "set buffer capacity", "buffer capacity is fixed after the first write")
	}
	if err := checkCapacity("set buffer capacity", squares, w.recordSize); err != nil {
		return err
	}
	w.capacity = squares
	return nil
}

// WriteNext encodes sq into the buffer, flushing the buffer to the
// file when it reaches capacity. A square that fails to encode (for
// example, a cell outside the portable range) is not written and the
// Writer stays usable; a failed flush is sticky.
func (w *Writer) WriteNext(sq square.Square) error {
	if w.closed {
		return square.Wrap(square.KindUsage, "write square", square.ErrClosed)
	}
	if w.failed != nil {
		return w.failed
	}
	if w.buffer == nil {
		w.buffer = make([]byte, 0, w.capacity*w.recordSize)
	}

	pending := len(w.buffer)
	w.buffer = w.buffer[:pending+w.recordSize]
	if err := square.PutSquare(w.config, w.buffer[pending:], sq, w.width); err != nil {
		w.buffer = w.buffer[:pending]
		return err
	}
	w.written++

	if len(w.buffer) == cap(w.buffer) {
		return w.Flush()
	}
	return nil
}

// Flush writes any buffered records to the file. With compression
// enabled the bytes may still sit in the compressor until Close.
func (w *Writer) Flush() error {
	if w.closed {
		return square.Wrap(square.KindUsage, "flush squares", square.ErrClosed)
	}
	if w.failed != nil {
		return w.failed
	}
	if len(w.buffer) == 0 {
		return nil
	}

	written, err := w.sink.Write(w.buffer)
	w.bytes += int64(written)
	if err != nil {
		w.failed = square.Errorf(square.KindIO, "flush squares", "writing %s: %w", w.file.Name(), err)
		return w.failed
	}

	w.flushes++
	w.logger.Debug("flushed square buffer",
		"flush", w.flushes,
		"bytes", len(w.buffer),
		"records", len(w.buffer)/w.recordSize,
	)
	w.buffer = w.buffer[:0]
	return nil
}

// Written returns the number of squares accepted by WriteNext.
func (w *Writer) Written() int { return w.written }

// BufferCapacity returns the number of squares held between flushes.
func (w *Writer) BufferCapacity() int { return w.capacity }

// Flushes returns the number of buffer flushes that reached the file.
func (w *Writer) Flushes() int { return w.flushes }

// Bytes returns the number of record bytes handed to the file (before
// compression).
func (w *Writer) Bytes() int64 { return w.bytes }

// Close flushes buffered records, finishes any compressed stream,
// syncs, and closes the file. The file is closed even when the flush
// fails; all failures are reported together. A second Close returns
// square.ErrClosed.
func (w *Writer) Close() error {
	if w.closed {
		return square.Wrap(square.KindUsage, "close writer", square.ErrClosed)
	}
	flushErr := w.Flush()
	w.closed = true
	w.buffer = nil

	return square.Wrap(square.KindIO, "close writer", errors.Join(flushErr, closeOutput(w.file, w.sink)))
}
