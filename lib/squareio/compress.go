// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package squareio

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// Compression identifies the whole-stream compression wrapped around a
// square file. The record layout inside the compressed stream is
// unchanged. Compression is never sniffed from file contents: reader
// and writer must be opened with the same value.
type Compression uint8

const (
	// CompressionNone reads and writes the file directly.
	CompressionNone Compression = 0

	// CompressionZstd wraps the file in a zstd stream at the default
	// level. Small cell values leave the high bytes of each cell zero,
	// and files that repeat squares compress well; dense enumerations
	// of distinct squares may barely shrink.
	CompressionZstd Compression = 1

	// CompressionLZ4 wraps the file in an LZ4 frame. Lower ratio than
	// zstd, but decode speed stays ahead of disk.
	CompressionLZ4 Compression = 2
)

// String returns the name accepted by ParseCompression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, square.Errorf(square.KindUsage, "parse compression",
			"unknown compression %q (want none, zstd, or lz4)", name)
	}
}

// decompressor wraps source according to c. The returned closer
// releases decoder state only; it never closes source.
func decompressor(source io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(source), nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(source)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %d", uint8(c))
	}
}

// compressor wraps destination according to c. Closing the returned
// writer finishes the compressed stream but does not close destination.
func compressor(destination io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{destination}, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(destination,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(destination), nil
	default:
		return nil, fmt.Errorf("unsupported compression %d", uint8(c))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
