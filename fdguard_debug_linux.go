// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux && shift_debug

package shift

import (
	"os"
	"time"
)

// startFDGuard counts entries under /proc/self/fd once a second,
// catching a leaking dma-buf import or acquire-fence fd during
// development. Exceeding cfg.MaxOpenFDs closes l.fdGuardFatal, which
// the main loop's select observes and turns into a fatal
// KindFdGuardExceeded RenderError. Only built with
// -tags shift_debug; production builds pay nothing for it.
func (l *RenderingLayer) startFDGuard(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n, err := countOpenFDs()
				if err != nil {
					continue
				}
				if n > l.cfg.MaxOpenFDs {
					Logger().Warn("shift: open fd count exceeds guard threshold, terminating",
						"count", n, "threshold", l.cfg.MaxOpenFDs)
					close(l.fdGuardFatal)
					return
				}
			}
		}
	}()
}

func countOpenFDs() (int, error) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
