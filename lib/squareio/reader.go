// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package squareio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// Reader yields squares one at a time from a binary square file. It
// reads the file in blocks of bufferSquares records and decodes from
// the block, refilling transparently when the block is exhausted.
//
// The width and record size are fixed at open time. A Reader is not
// safe for concurrent use.
type Reader struct {
	file   *os.File
	source io.ReadCloser
	logger *slog.Logger

	config     square.Config
	width      square.Width
	recordSize int

	capacity int    // squares per refill
	buffer   []byte // allocated on first read
	valid    int    // bytes of whole records in buffer
	cursor   int    // offset of the next undecoded record
	tail     int    // bytes of a trailing partial record at end of input

	exhausted bool  // source returned end of input
	failed    error // sticky error from a refill
	closed    bool

	squares int
	refills int
}

// OpenReader opens a binary square file for sequential reading. The
// file must hold records of config's shape encoded with width. Fails
// with KindNotFound when path does not exist and KindIO for other open
// failures.
func OpenReader(path string, config square.Config, width square.Width, opts ...Option) (*Reader, error) {
	if config.CellCount() == 0 {
		return nil, square.Errorf(square.KindUsage, "open reader", "zero Config; construct it with square.NewConfig")
	}
	settings := applyOptions(opts)
	recordSize := config.RecordSize(width)
	capacity, err := settings.resolveCapacity("open reader", recordSize)
	if err != nil {
		return nil, err
	}

	file, source, err := openInput(path, settings.compression)
	if err != nil {
		return nil, err
	}

	return &Reader{
		file:       file,
		source:     source,
		logger:     settings.logger.With("path", path, "width", width.String()),
		config:     config,
		width:      width,
		recordSize: recordSize,
		capacity:   capacity,
	}, nil
}

// SetBufferCapacity sets how many squares each refill fetches. It must
// be called before the first ReadNext.
func (r *Reader) SetBufferCapacity(squares int) error {
	if r.closed {
		return square.Wrap(square.KindUsage, "set buffer capacity", square.ErrClosed)
	}
	if r.buffer != nil {
		return square.Errorf(square.KindUsage, "set buffer capacity", "buffer capacity is fixed after the first read")
	}
	if err := checkCapacity("set buffer capacity", squares, r.recordSize); err != nil {
		return err
	}
	r.capacity = squares
	return nil
}

// ReadNext decodes the next square into dst, which must have length
// config.CellCount().
//
// At a clean end of input ReadNext returns io.EOF and leaves dst
// untouched; the previous nil return delivered the last square. When
// the input ends inside a record, every whole record is delivered
// first and then ReadNext fails with square.ErrTruncatedRecord instead
// of io.EOF. End of input and read failures are sticky.
func (r *Reader) ReadNext(dst square.Square) error {
	if r.closed {
		return square.Wrap(square.KindUsage, "read square", square.ErrClosed)
	}
	if len(dst) != r.config.CellCount() {
		return square.Errorf(square.KindUsage, "read square", "square has %d cells, stream expects %d",
			len(dst), r.config.CellCount())
	}

	if r.cursor == r.valid {
		if err := r.refill(); err != nil {
			return err
		}
	}

	if err := square.DecodeSquare(r.config, r.buffer[r.cursor:r.valid], r.width, dst); err != nil {
		return err
	}
	r.cursor += r.recordSize
	r.squares++
	return nil
}

// refill replaces the exhausted buffer with the next block of whole
// records. Returns io.EOF or a truncated-record error once the input
// has nothing left to deliver.
func (r *Reader) refill() error {
	for {
		if r.failed != nil {
			return r.failed
		}
		if r.exhausted {
			if r.tail > 0 {
				r.failed = &square.Error{Kind: square.KindTruncated, Op: "read square",
					Err: fmt.Errorf("%s: %w: %d trailing bytes after %d records of %d bytes",
						r.file.Name(), square.ErrTruncatedRecord, r.tail, r.squares, r.recordSize)}
				return r.failed
			}
			return io.EOF
		}

		if r.buffer == nil {
			r.buffer = make([]byte, r.capacity*r.recordSize)
		}

		read, err := io.ReadFull(r.source, r.buffer)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			r.exhausted = true
		default:
			r.failed = square.Errorf(square.KindIO, "read square", "reading %s: %w", r.file.Name(), err)
			return r.failed
		}

		r.valid = read - read%r.recordSize
		r.tail = read - r.valid
		r.cursor = 0
		if read > 0 {
			r.refills++
			r.logger.Debug("refilled square buffer",
				"refill", r.refills,
				"bytes", read,
				"records", r.valid/r.recordSize,
			)
		}
		if r.valid > 0 {
			return nil
		}
	}
}

// Squares returns the number of squares delivered so far.
func (r *Reader) Squares() int { return r.squares }

// BufferCapacity returns the number of squares per refill.
func (r *Reader) BufferCapacity() int { return r.capacity }

// Refills returns the number of buffer refills that read data from the
// file.
func (r *Reader) Refills() int { return r.refills }

// Close releases the buffer and the file. A second Close returns
// square.ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return square.Wrap(square.KindUsage, "close reader", square.ErrClosed)
	}
	r.closed = true
	r.buffer = nil

	sourceErr := r.source.Close()
	fileErr := r.file.Close()
	if err := errors.Join(sourceErr, fileErr); err != nil {
		return square.Wrap(square.KindIO, "close reader", err)
	}
	return nil
}
