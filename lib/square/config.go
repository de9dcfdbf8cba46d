// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package square

import (
	"fmt"
	"math"
)

// Origin is the value a square's cells are conventionally counted
// from. A 0-origin square of order 3 holds 0..8; the 1-origin form of
// the same square holds 1..9.
type Origin int

const (
	OriginZero Origin = 0
	OriginOne  Origin = 1
)

// String returns "0" or "1".
func (o Origin) String() string {
	return fmt.Sprintf("%d", int(o))
}

// ShiftTo returns the constant that converts cells counted from o to
// cells counted from target.
func (o Origin) ShiftTo(target Origin) int {
	return int(target) - int(o)
}

// maxCells bounds CellCount so that a host-width record size, the
// largest of the two widths, still fits in an int.
const maxCells = math.MaxInt / hostCellSize

// Config describes the shape of every square in a stream. It is
// immutable: fields are set once by NewConfig and only read through
// accessors. The zero Config is invalid.
type Config struct {
	order     int
	cellCount int
	origin    Origin
}

// NewConfig returns the configuration for squares of the given order
// whose cells are counted from origin.
func NewConfig(order int, origin Origin) (Config, error) {
	if order <= 0 {
		return Config{}, &Error{Kind: KindConfig, Op: "square config",
			Err: fmt.Errorf("%w: must be positive, got %d", ErrInvalidOrder, order)}
	}
	if order > maxCells/order {
		return Config{}, &Error{Kind: KindConfig, Op: "square config",
			Err: fmt.Errorf("%w: %d squared overflows a host-width record", ErrInvalidOrder, order)}
	}
	if origin != OriginZero && origin != OriginOne {
		return Config{}, Errorf(KindConfig, "square config", "origin must be 0 or 1, got %d", int(origin))
	}
	return Config{
		order:     order,
		cellCount: order * order,
		origin:    origin,
	}, nil
}

// Order returns the side length.
func (c Config) Order() int { return c.order }

// CellCount returns Order².
func (c Config) CellCount() int { return c.cellCount }

// Origin returns the origin the cells are counted from.
func (c Config) Origin() Origin { return c.origin }

// NewSquare allocates a zeroed square of this shape. Callers allocate
// once and reuse the square across reads.
func (c Config) NewSquare() Square {
	return make(Square, c.cellCount)
}

// RecordSize returns the number of bytes one square occupies in a
// binary stream of the given width.
func (c Config) RecordSize(width Width) int {
	return c.cellCount * width.BytesPerCell()
}

// Square is an order×order grid of integers in row-major order.
type Square []int

// Shift adds delta to every cell in place. When any cell would
// overflow int, no cell is changed and Shift fails with KindRange, so
// the host width never wraps a value the portable width would reject.
func (s Square) Shift(delta int) error {
	if delta == 0 {
		return nil
	}
	for i, value := range s {
		if (delta > 0 && value > math.MaxInt-delta) || (delta < 0 && value < math.MinInt-delta) {
			return Errorf(KindRange, "shift square", "cell %d value %d overflows int when shifted by %d", i, value, delta)
		}
	}
	for i := range s {
		s[i] += delta
	}
	return nil
}

// checkLength reports a usage error when sq does not hold exactly one
// square of config's shape.
func checkLength(config Config, sq Square, op string) error {
	if config.cellCount == 0 {
		return Errorf(KindUsage, op, "zero Config; construct it with NewConfig")
	}
	if len(sq) != config.cellCount {
		return Errorf(KindUsage, op, "square has %d cells, config expects %d", len(sq), config.cellCount)
	}
	return nil
}
