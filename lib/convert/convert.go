// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/msorigin/lib/binhash"
	"github.com/bureau-foundation/msorigin/lib/clock"
	"github.com/bureau-foundation/msorigin/lib/manifest"
	"github.com/bureau-foundation/msorigin/lib/square"
	"github.com/bureau-foundation/msorigin/lib/squareio"
	"github.com/bureau-foundation/msorigin/lib/version"
)

// cancelCheckInterval is how many squares pass between context checks.
const cancelCheckInterval = 1024

// Options describes one conversion.
type Options struct {
	// Order is the side length of every square in the input.
	Order int

	// From is the origin the input is counted from. The output is
	// counted from the other origin.
	From square.Origin

	InputPath  string
	OutputPath string

	Format      squareio.Format
	Compression squareio.Compression

	// BufferSquares is the binary reader and writer buffer capacity.
	// Zero means squareio.DefaultBufferSquares, lowered for squares too
	// large to buffer that many within squareio.MaxBufferBytes.
	BufferSquares int

	// ManifestPath, when set, receives a CBOR manifest of the run.
	ManifestPath string

	Logger *slog.Logger

	// Clock stamps the manifest and times the run. Nil means
	// clock.Real().
	Clock clock.Clock
}

// Summary reports what a conversion did.
type Summary struct {
	Squares int
	Shift   int

	// Refills and Flushes are zero for text conversions, which do not
	// move whole-record blocks.
	Refills int
	Flushes int

	// Bytes is the size of the output file.
	Bytes int64

	Digest binhash.Digest
}

// Run reads every square from the input, shifts each cell from
// options.From to the opposite origin, and writes the squares to the
// output in input order. Exactly the squares read are written: the run
// stops at end of input without writing anything further.
//
// On failure the output holds every square converted before the
// failure, and the returned error carries the first failure joined
// with any error from closing the streams.
func Run(ctx context.Context, options Options) (summary Summary, err error) {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	started := options.Clock.Now()
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := options.validate(); err != nil {
		return Summary{}, err
	}

	target := opposite(options.From)
	inputConfig, err := square.NewConfig(options.Order, options.From)
	if err != nil {
		return Summary{}, err
	}
	outputConfig, err := square.NewConfig(options.Order, target)
	if err != nil {
		return Summary{}, err
	}
	summary.Shift = options.From.ShiftTo(target)

	logger = logger.With(
		"input", options.InputPath,
		"output", options.OutputPath,
		"order", options.Order,
		"format", options.Format.String(),
	)
	streamOptions := []squareio.Option{
		squareio.WithCompression(options.Compression),
		squareio.WithLogger(logger),
	}

	reader, err := squareio.OpenFormatReader(options.InputPath, inputConfig, options.Format, streamOptions...)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		err = errors.Join(err, reader.Close())
	}()

	// The writer checks an explicit capacity against the buffer limit
	// before creating the output file.
	writerOptions := streamOptions
	if options.BufferSquares > 0 {
		writerOptions = append(writerOptions, squareio.WithBufferSquares(options.BufferSquares))
	}
	writer, err := squareio.OpenFormatWriter(options.OutputPath, squareio.Overwrite, outputConfig, options.Format, writerOptions...)
	if err != nil {
		return Summary{}, err
	}
	writerClosed := false
	defer func() {
		if !writerClosed {
			err = errors.Join(err, writer.Close())
		}
	}()

	if options.BufferSquares > 0 {
		if err := setCapacity(reader, writer, options.BufferSquares); err != nil {
			return Summary{}, err
		}
	}
	options.BufferSquares = bufferCapacity(writer)
	if _, binary := options.Format.Width(); binary {
		logger.Debug("buffering squares", "buffer_squares", options.BufferSquares)
	}

	if err := shiftAll(ctx, reader, writer, inputConfig, summary.Shift); err != nil {
		summary.Squares = writer.Written()
		return summary, err
	}

	writerClosed = true
	if err := writer.Close(); err != nil {
		summary.Squares = writer.Written()
		return summary, err
	}

	summary.Squares = writer.Written()
	if counted, ok := reader.(interface{ Refills() int }); ok {
		summary.Refills = counted.Refills()
	}
	if counted, ok := writer.(interface{ Flushes() int }); ok {
		summary.Flushes = counted.Flushes()
	}

	output, err := manifest.Describe(options.OutputPath)
	if err != nil {
		return summary, square.Wrap(square.KindIO, "describe output", err)
	}
	summary.Bytes = output.Bytes
	summary.Digest, err = binhash.ParseDigest(output.Digest)
	if err != nil {
		return summary, err
	}

	logger.Info("converted squares",
		"squares", summary.Squares,
		"shift", summary.Shift,
		"bytes", summary.Bytes,
		"refills", summary.Refills,
		"flushes", summary.Flushes,
		"digest", output.Digest,
		"duration", options.Clock.Since(started),
	)

	if options.ManifestPath != "" {
		if err := writeManifest(options, summary, output, started); err != nil {
			return summary, err
		}
		logger.Debug("wrote manifest", "manifest", options.ManifestPath)
	}
	return summary, nil
}

// shiftAll moves every square from reader to writer, adding delta to
// each cell.
func shiftAll(ctx context.Context, reader squareio.SquareReader, writer squareio.SquareWriter, config square.Config, delta int) error {
	sq := config.NewSquare()
	for count := 0; ; count++ {
		if count%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		err := reader.ReadNext(sq)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sq.Shift(delta); err != nil {
			return err
		}
		if err := writer.WriteNext(sq); err != nil {
			return err
		}
	}
}

// setCapacity applies the buffer size to the binary reader and writer.
// Text streams have no record buffer and are left alone.
func setCapacity(reader squareio.SquareReader, writer squareio.SquareWriter, squares int) error {
	type capacitySetter interface{ SetBufferCapacity(int) error }
	if buffered, ok := reader.(capacitySetter); ok {
		if err := buffered.SetBufferCapacity(squares); err != nil {
			return err
		}
	}
	if buffered, ok := writer.(capacitySetter); ok {
		if err := buffered.SetBufferCapacity(squares); err != nil {
			return err
		}
	}
	return nil
}

// bufferCapacity reports the squares the writer holds between
// flushes. Text writers size by bytes and report the default.
func bufferCapacity(writer squareio.SquareWriter) int {
	if buffered, ok := writer.(interface{ BufferCapacity() int }); ok {
		return buffered.BufferCapacity()
	}
	return squareio.DefaultBufferSquares
}

func writeManifest(options Options, summary Summary, output manifest.File, started time.Time) error {
	input, err := manifest.Describe(options.InputPath)
	if err != nil {
		return square.Wrap(square.KindIO, "describe input", err)
	}
	record := &manifest.Manifest{
		Tool:          "msorigin " + version.Info(),
		Order:         options.Order,
		Shift:         summary.Shift,
		Format:        options.Format.String(),
		Compression:   options.Compression.String(),
		BufferSquares: options.BufferSquares,
		Input:         input,
		Output:        output,
		Squares:       summary.Squares,
		StartedAt:     started.UTC(),
		FinishedAt:    options.Clock.Now().UTC(),
	}
	if err := manifest.Write(options.ManifestPath, record); err != nil {
		return square.Wrap(square.KindIO, "write manifest", err)
	}
	return nil
}

func (o Options) validate() error {
	if o.InputPath == "" {
		return square.Errorf(square.KindUsage, "convert", "input path is required")
	}
	if o.OutputPath == "" {
		return square.Errorf(square.KindUsage, "convert", "output path is required")
	}
	if o.BufferSquares < 0 {
		return square.Errorf(square.KindUsage, "convert", "buffer must hold at least 1 square, got %d", o.BufferSquares)
	}
	if samePath(o.InputPath, o.OutputPath) {
		return square.Errorf(square.KindUsage, "convert", "input and output are the same file %s", o.InputPath)
	}
	if o.ManifestPath != "" && (samePath(o.ManifestPath, o.InputPath) || samePath(o.ManifestPath, o.OutputPath)) {
		return square.Errorf(square.KindUsage, "convert", "manifest %s would overwrite a square file", o.ManifestPath)
	}
	return nil
}

// samePath reports whether a and b name the same file, either
// lexically or, when both exist, by identity.
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func opposite(origin square.Origin) square.Origin {
	if origin == square.OriginOne {
		return square.OriginZero
	}
	return square.OriginOne
}
