// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package square

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Width selects how cells are laid out in a binary record. Widths are
// fixed for the lifetime of a stream: a reader and a writer that share
// a file must agree on it.
type Width uint8

const (
	// Portable stores each cell as a 4-byte two's-complement integer
	// in little-endian order, regardless of the executing machine.
	// This is the interchange format; changing it breaks every
	// existing portable file.
	Portable Width = 0

	// Host stores each cell in the machine's native int width and
	// byte order (8 bytes on 64-bit platforms). Host files are only
	// readable on machines with the same int width and endianness.
	Host Width = 1
)

// portableCellSize is the byte width of a Portable cell.
const portableCellSize = 4

// hostCellSize is the byte width of a Host cell.
const hostCellSize = strconv.IntSize / 8

// BytesPerCell returns the encoded size of one cell.
func (w Width) BytesPerCell() int {
	if w == Host {
		return hostCellSize
	}
	return portableCellSize
}

// String returns the width's name as accepted by ParseWidth.
func (w Width) String() string {
	switch w {
	case Portable:
		return "portable"
	case Host:
		return "host"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(w))
	}
}

// ParseWidth parses "portable" or "host".
func ParseWidth(name string) (Width, error) {
	switch name {
	case "portable":
		return Portable, nil
	case "host":
		return Host, nil
	default:
		return 0, Errorf(KindUsage, "parse width", "unknown width %q (want portable or host)", name)
	}
}

// EncodeSquare returns the binary record for sq: exactly
// CellCount × BytesPerCell bytes.
func EncodeSquare(config Config, sq Square, width Width) ([]byte, error) {
	record := make([]byte, config.RecordSize(width))
	if err := PutSquare(config, record, sq, width); err != nil {
		return nil, err
	}
	return record, nil
}

// PutSquare encodes sq into the first RecordSize(width) bytes of dst.
// Portable encoding fails with KindRange for cells outside the int32
// range rather than truncating them.
func PutSquare(config Config, dst []byte, sq Square, width Width) error {
	if err := checkLength(config, sq, "encode square"); err != nil {
		return err
	}
	if len(dst) < config.RecordSize(width) {
		return Errorf(KindUsage, "encode square", "destination holds %d bytes, record needs %d",
			len(dst), config.RecordSize(width))
	}

	switch width {
	case Portable:
		for i, value := range sq {
			if value < math.MinInt32 || value > math.MaxInt32 {
				return Errorf(KindRange, "encode square", "cell %d value %d does not fit a portable 32-bit cell", i, value)
			}
			binary.LittleEndian.PutUint32(dst[i*portableCellSize:], uint32(int32(value)))
		}
	case Host:
		for i, value := range sq {
			putHostCell(dst[i*hostCellSize:], value)
		}
	default:
		return Errorf(KindUsage, "encode square", "unknown width %d", uint8(width))
	}
	return nil
}

// DecodeSquare decodes one record from the front of data into dst.
// Bytes beyond the first record are ignored. Fewer bytes than a record
// fail with ErrTruncatedRecord; a short record is never zero-padded.
func DecodeSquare(config Config, data []byte, width Width, dst Square) error {
	if err := checkLength(config, dst, "decode square"); err != nil {
		return err
	}
	recordSize := config.RecordSize(width)
	if len(data) < recordSize {
		return &Error{Kind: KindTruncated, Op: "decode square",
			Err: fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedRecord, len(data), recordSize)}
	}

	switch width {
	case Portable:
		for i := range dst {
			dst[i] = int(int32(binary.LittleEndian.Uint32(data[i*portableCellSize:])))
		}
	case Host:
		for i := range dst {
			dst[i] = hostCell(data[i*hostCellSize:])
		}
	default:
		return Errorf(KindUsage, "decode square", "unknown width %d", uint8(width))
	}
	return nil
}

func putHostCell(dst []byte, value int) {
	if hostCellSize == 8 {
		binary.NativeEndian.PutUint64(dst, uint64(int64(value)))
		return
	}
	binary.NativeEndian.PutUint32(dst, uint32(int32(value)))
}

func hostCell(data []byte) int {
	if hostCellSize == 8 {
		return int(int64(binary.NativeEndian.Uint64(data)))
	}
	return int(int32(binary.NativeEndian.Uint32(data)))
}
