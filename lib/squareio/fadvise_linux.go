// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package squareio

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the file will be read front to
// back so it can read ahead aggressively. Failure only costs
// readahead, so the error is dropped.
func adviseSequential(file *os.File) {
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
