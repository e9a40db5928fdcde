// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package shift

import "golang.org/x/sys/unix"

// pollReadable blocks up to timeoutMs waiting for fd to become
// readable, returning false on timeout or error (a closed/invalid fd
// included) so callers can simply loop.
func pollReadable(fd int, timeoutMs int) bool {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, timeoutMs)
	if err != nil || n <= 0 {
		return false
	}
	return pfd[0].Revents&unix.POLLIN != 0
}

// closeFd closes a raw file descriptor, logging (never panicking) on
// failure — used for fds rejected before they reach a Texture or fence
// task that would otherwise own them.
func closeFd(fd int) {
	if err := unix.Close(fd); err != nil {
		Logger().Debug("shift: close fd failed", "fd", fd, "err", err)
	}
}
