// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package square

import (
	"errors"
	"fmt"
)

// ErrorKind classifies square errors so that callers can decide how to
// react (fix the invocation, report corrupt input, give up on I/O)
// without parsing message text.
type ErrorKind string

const (
	// KindConfig indicates an invalid square shape: non-positive order
	// or an origin other than 0 or 1.
	KindConfig ErrorKind = "config"

	// KindParse indicates a malformed text record: wrong token count
	// or a token that is not a base-10 integer.
	KindParse ErrorKind = "parse"

	// KindTruncated indicates that a binary record was incomplete where
	// a full record was expected.
	KindTruncated ErrorKind = "truncated"

	// KindRange indicates a cell value that cannot be represented in
	// the requested binary width.
	KindRange ErrorKind = "range"

	// KindNotFound indicates that an input file does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindIO indicates a filesystem open, read, write, or close
	// failure.
	KindIO ErrorKind = "io"

	// KindUsage indicates an API or command line misuse: bad flag
	// combinations, calls in the wrong state.
	KindUsage ErrorKind = "usage"
)

// Sentinel errors. Match them with errors.Is; the Error wrapper
// carries the kind and operation around them.
var (
	ErrInvalidOrder    = errors.New("invalid square order")
	ErrTruncatedRecord = errors.New("truncated record")
	ErrClosed          = errors.New("stream already closed")
)

// Error is a classified error. Err carries the human-readable message
// and the underlying cause; Op names the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so errors.Is and errors.As see
// through the classification.
func (e *Error) Unwrap() error { return e.Err }

// Errorf creates an Error of the given kind. The format follows
// fmt.Errorf, so %w wraps a cause.
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under kind. Returns nil when err is nil.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost Error in err's chain, or ""
// when err carries no classification.
func KindOf(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
