// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package squareio

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// TextReader yields squares from a text square file, one line per
// square. Lines may be arbitrarily long: the line buffer grows as
// needed instead of imposing a ceiling.
type TextReader struct {
	file   *os.File
	source io.ReadCloser
	lines  *bufio.Reader
	config square.Config
	closed bool

	line    int
	squares int
}

// OpenTextReader opens a text square file for sequential reading.
func OpenTextReader(path string, config square.Config, opts ...Option) (*TextReader, error) {
	if config.CellCount() == 0 {
		return nil, square.Errorf(square.KindUsage, "open text reader", "zero Config; construct it with square.NewConfig")
	}
	settings := applyOptions(opts)

	file, source, err := openInput(path, settings.compression)
	if err != nil {
		return nil, err
	}
	return &TextReader{
		file:   file,
		source: source,
		lines:  bufio.NewReader(source),
		config: config,
	}, nil
}

// ReadNext parses the next line into dst. Returns io.EOF after the
// last line; a final line without a terminator is still a square.
// Parse errors name the 1-based line number.
func (r *TextReader) ReadNext(dst square.Square) error {
	if r.closed {
		return square.Wrap(square.KindUsage, "read text square", square.ErrClosed)
	}

	line, err := r.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return square.Errorf(square.KindIO, "read text square", "reading %s: %w", r.file.Name(), err)
	}
	if line == "" {
		return io.EOF
	}
	r.line++

	if err := square.ParseLine(r.config, line, dst); err != nil {
		return square.Errorf(square.KindParse, "read text square", "%s line %d: %w", r.file.Name(), r.line, err)
	}
	r.squares++
	return nil
}

// Squares returns the number of squares delivered so far.
func (r *TextReader) Squares() int { return r.squares }

// Close releases the file.
func (r *TextReader) Close() error {
	if r.closed {
		return square.Wrap(square.KindUsage, "close text reader", square.ErrClosed)
	}
	r.closed = true
	return square.Wrap(square.KindIO, "close text reader", errors.Join(r.source.Close(), r.file.Close()))
}

// maxTextBuffer caps the text output buffer for large orders.
const maxTextBuffer = 4 << 20

// TextWriter writes squares as text lines, each terminated by a single
// "\n". Output is buffered; Close must run on every path.
type TextWriter struct {
	file    *os.File
	sink    io.WriteCloser
	out     *bufio.Writer
	config  square.Config
	scratch []byte
	logger  *slog.Logger
	closed  bool
	failed  error

	written int
}

// CreateTextWriter opens path for text output with flags (usually
// Overwrite). The output buffer holds roughly bufferSquares lines.
func CreateTextWriter(path string, flags OpenFlag, config square.Config, opts ...Option) (*TextWriter, error) {
	if config.CellCount() == 0 {
		return nil, square.Errorf(square.KindUsage, "open text writer", "zero Config; construct it with square.NewConfig")
	}
	settings := applyOptions(opts)

	file, sink, err := openOutput(path, flags, settings.compression)
	if err != nil {
		return nil, err
	}

	// Four bytes per cell covers a space and up to three digits, the
	// common case for small-order squares; larger values just flush
	// sooner.
	lineEstimate := min(config.CellCount()*4, maxTextBuffer)
	lines := settings.bufferSquares
	if lines == 0 {
		lines = DefaultBufferSquares
	}
	bufferSize := maxTextBuffer
	if lines <= maxTextBuffer/lineEstimate {
		bufferSize = lines * lineEstimate
	}
	return &TextWriter{
		file:    file,
		sink:    sink,
		out:     bufio.NewWriterSize(sink, bufferSize),
		config:  config,
		scratch: make([]byte, 0, lineEstimate),
		logger:  settings.logger.With("path", path),
	}, nil
}

// WriteNext formats sq as one line.
func (w *TextWriter) WriteNext(sq square.Square) error {
	if w.closed {
		return square.Wrap(square.KindUsage, "write text square", square.ErrClosed)
	}
	if w.failed != nil {
		return w.failed
	}

	line, err := square.AppendLine(w.config, w.scratch[:0], sq)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	w.scratch = line

	if _, err := w.out.Write(line); err != nil {
		w.failed = square.Errorf(square.KindIO, "write text square", "writing %s: %w", w.file.Name(), err)
		return w.failed
	}
	w.written++
	return nil
}

// Written returns the number of squares accepted by WriteNext.
func (w *TextWriter) Written() int { return w.written }

// Close flushes buffered lines and closes the file. The file is closed
// even when the flush fails.
func (w *TextWriter) Close() error {
	if w.closed {
		return square.Wrap(square.KindUsage, "close text writer", square.ErrClosed)
	}
	w.closed = true

	flushErr := w.failed
	if flushErr == nil {
		flushErr = w.out.Flush()
	}
	w.logger.Debug("closed text writer", "squares", w.written)
	return square.Wrap(square.KindIO, "close text writer", errors.Join(flushErr, closeOutput(w.file, w.sink)))
}
