// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package squareio

import (
	"fmt"

	"github.com/bureau-foundation/msorigin/lib/square"
)

// Format selects one of the three square serializations.
type Format uint8

const (
	// FormatText is one line of decimal integers per square.
	FormatText Format = iota

	// FormatPortable is headerless square.Portable binary records.
	FormatPortable

	// FormatHost is headerless square.Host binary records.
	FormatHost
)

// String returns the name accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatPortable:
		return "binary"
	case FormatHost:
		return "host-binary"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// ParseFormat parses "text", "binary", or "host-binary".
func ParseFormat(name string) (Format, error) {
	switch name {
	case "text":
		return FormatText, nil
	case "binary":
		return FormatPortable, nil
	case "host-binary":
		return FormatHost, nil
	default:
		return 0, square.Errorf(square.KindUsage, "parse format",
			"unknown format %q (want text, binary, or host-binary)", name)
	}
}

// Width returns the binary width of a binary format. Text has none.
func (f Format) Width() (square.Width, bool) {
	switch f {
	case FormatPortable:
		return square.Portable, true
	case FormatHost:
		return square.Host, true
	default:
		return 0, false
	}
}

// SquareReader is the common surface of Reader and TextReader.
type SquareReader interface {
	ReadNext(dst square.Square) error
	Squares() int
	Close() error
}

// SquareWriter is the common surface of Writer and TextWriter.
type SquareWriter interface {
	WriteNext(sq square.Square) error
	Written() int
	Close() error
}

var (
	_ SquareReader = (*Reader)(nil)
	_ SquareReader = (*TextReader)(nil)
	_ SquareWriter = (*Writer)(nil)
	_ SquareWriter = (*TextWriter)(nil)
)

// OpenFormatReader opens path as a reader for format.
func OpenFormatReader(path string, config square.Config, format Format, opts ...Option) (SquareReader, error) {
	if width, ok := format.Width(); ok {
		return OpenReader(path, config, width, opts...)
	}
	if format != FormatText {
		return nil, square.Errorf(square.KindUsage, "open reader", "unknown format %d", uint8(format))
	}
	return OpenTextReader(path, config, opts...)
}

// OpenFormatWriter opens path as a writer for format.
func OpenFormatWriter(path string, flags OpenFlag, config square.Config, format Format, opts ...Option) (SquareWriter, error) {
	if width, ok := format.Width(); ok {
		return OpenWriter(path, flags, config, width, opts...)
	}
	if format != FormatText {
		return nil, square.Errorf(square.KindUsage, "open writer", "unknown format %d", uint8(format))
	}
	return CreateTextWriter(path, flags, config, opts...)
}
