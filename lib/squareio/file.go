// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package squareio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// DefaultBufferSquares is the number of squares a Reader fetches per
// refill and a Writer holds before flushing, unless overridden. For
// very large squares the default is lowered to fit MaxBufferBytes.
const DefaultBufferSquares = 1000

// MaxBufferBytes caps the record buffer of a Reader or Writer.
const MaxBufferBytes = 64 << 20

// MaxBufferSquares is the largest capacity any square shape can use:
// order-1 squares at 4 bytes per portable record.
const MaxBufferSquares = MaxBufferBytes / 4

// defaultCapacity is DefaultBufferSquares lowered so the buffer fits
// MaxBufferBytes. It is never below one record.
func defaultCapacity(recordSize int) int {
	return max(1, min(DefaultBufferSquares, MaxBufferBytes/recordSize))
}

// checkCapacity rejects capacities below one square or whose buffer
// would exceed MaxBufferBytes.
func checkCapacity(op string, squares, recordSize int) error {
	if squares < 1 {
		return square.Errorf(square.KindUsage, op, "capacity must be at least 1 square, got %d", squares)
	}
	if squares > 1 && squares > MaxBufferBytes/recordSize {
		return square.Errorf(square.KindUsage, op,
			"buffer of %d squares of %d bytes exceeds the %d byte limit; at most %d squares fit",
			squares, recordSize, MaxBufferBytes, max(1, MaxBufferBytes/recordSize))
	}
	return nil
}

// resolveCapacity returns the capacity for records of recordSize: the
// explicit option checked against the limit, or the fitted default.
func (o options) resolveCapacity(op string, recordSize int) (int, error) {
	if o.bufferSquares == 0 {
		return defaultCapacity(recordSize), nil
	}
	if err := checkCapacity(op, o.bufferSquares, recordSize); err != nil {
		return 0, err
	}
	return o.bufferSquares, nil
}

// OpenFlag controls how OpenWriter and CreateTextWriter open their
// file. Flags combine with |.
type OpenFlag uint8

const (
	// FlagCreate creates the file if it does not exist.
	FlagCreate OpenFlag = 1 << iota

	// FlagTruncate empties an existing file. FlagCreate|FlagTruncate
	// is overwrite semantics, the default for conversion output.
	FlagTruncate

	// FlagAppend positions every write at the end of an existing
	// stream. Mutually exclusive with FlagTruncate.
	FlagAppend
)

// Overwrite is FlagCreate|FlagTruncate.
const Overwrite = FlagCreate | FlagTruncate

func (f OpenFlag) osFlags() (int, error) {
	if f&FlagTruncate != 0 && f&FlagAppend != 0 {
		return 0, square.Errorf(square.KindUsage, "open writer", "truncate and append are mutually exclusive")
	}
	flags := os.O_WRONLY
	if f&FlagCreate != 0 {
		flags |= os.O_CREATE
	}
	if f&FlagTruncate != 0 {
		flags |= os.O_TRUNC
	}
	if f&FlagAppend != 0 {
		flags |= os.O_APPEND
	}
	return flags, nil
}

// Option configures a reader or writer at open time.
type Option func(*options)

type options struct {
	compression   Compression
	bufferSquares int // 0 means the fitted default
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		compression: CompressionNone,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// WithCompression wraps the file in the given stream compression.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBufferSquares sets the initial buffer capacity in squares.
// Values below 1 are ignored. Opening fails with KindUsage when the
// buffer would exceed MaxBufferBytes.
func WithBufferSquares(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.bufferSquares = n
		}
	}
}

// WithLogger sets the logger for refill and flush events, which are
// logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	result := defaultOptions()
	for _, opt := range opts {
		opt(&result)
	}
	return result
}

// openInput opens path read-only and wraps it in the requested
// decompressor.
func openInput(path string, compression Compression) (*os.File, io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, square.Wrap(square.KindNotFound, "open input", err)
		}
		return nil, nil, square.Wrap(square.KindIO, "open input", err)
	}
	adviseSequential(file)

	source, err := decompressor(file, compression)
	if err != nil {
		file.Close()
		return nil, nil, square.Errorf(square.KindIO, "open input", "%s: %w", path, err)
	}
	return file, source, nil
}

// openOutput opens path for writing with flags and wraps it in the
// requested compressor.
func openOutput(path string, flags OpenFlag, compression Compression) (*os.File, io.WriteCloser, error) {
	osFlags, err := flags.osFlags()
	if err != nil {
		return nil, nil, err
	}
	if flags&FlagAppend != 0 && compression == CompressionLZ4 {
		return nil, nil, square.Errorf(square.KindUsage, "open output", "appending to an lz4 stream is not supported")
	}

	file, err := os.OpenFile(path, osFlags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, square.Wrap(square.KindNotFound, "open output", err)
		}
		return nil, nil, square.Wrap(square.KindIO, "open output", err)
	}

	sink, err := compressor(file, compression)
	if err != nil {
		file.Close()
		return nil, nil, square.Errorf(square.KindIO, "open output", "%s: %w", path, err)
	}
	return file, sink, nil
}

// closeOutput finishes the compressed stream, syncs, and closes the
// file. Every step runs even when an earlier one fails.
func closeOutput(file *os.File, sink io.WriteCloser) error {
	var errs []error
	if err := sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("finishing %s stream: %w", file.Name(), err))
	}
	if err := file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("syncing %s: %w", file.Name(), err))
	}
	if err := file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing %s: %w", file.Name(), err))
	}
	return errors.Join(errs...)
}
