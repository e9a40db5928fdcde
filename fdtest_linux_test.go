// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package shift

import (
	"testing"

	"golang.org/x/sys/unix"
)

// pipeFds returns a pipe's (read, write) fds for use as a fake acquire
// fence: writing to it makes the read end "signal" exactly like a
// kernel sync-file fd becoming readable.
func pipeFds() (r, w int, err error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func writeByte(t *testing.T, fd int, b []byte) {
	t.Helper()
	if _, err := unix.Write(fd, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}
