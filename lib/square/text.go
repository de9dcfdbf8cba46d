// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package square

import (
	"strconv"
	"strings"
)

// ParseLine parses one text record into dst. The line holds exactly
// CellCount whitespace-separated base-10 integers in row-major order.
// Surrounding whitespace, including the line terminator, is ignored.
//
// dst must have length CellCount. On error dst may be partially
// overwritten and must not be used.
func ParseLine(config Config, line string, dst Square) error {
	if err := checkLength(config, dst, "parse line"); err != nil {
		return err
	}

	fields := strings.Fields(line)
	if len(fields) != config.cellCount {
		return Errorf(KindParse, "parse line", "expected %d integers, got %d", config.cellCount, len(fields))
	}

	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return Errorf(KindParse, "parse line", "cell %d: %q is not an integer", i, field)
		}
		dst[i] = value
	}
	return nil
}

// FormatLine renders sq as CellCount integers separated by single
// spaces. The result has no line terminator.
func FormatLine(config Config, sq Square) (string, error) {
	line, err := AppendLine(config, make([]byte, 0, config.cellCount*4), sq)
	if err != nil {
		return "", err
	}
	return string(line), nil
}

// AppendLine appends the FormatLine rendering of sq to dst. Writers
// reuse dst across squares to avoid a per-line allocation.
func AppendLine(config Config, dst []byte, sq Square) ([]byte, error) {
	if err := checkLength(config, sq, "format line"); err != nil {
		return dst, err
	}
	for i, value := range sq {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendInt(dst, int64(value), 10)
	}
	return dst, nil
}
