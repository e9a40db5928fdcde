// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package drm

import (
	"log/slog"

	"github.com/gogpu/shift/hal"
)

// Logger returns the shared hal logger so drm's diagnostics land in the
// same stream as the rest of the hal tree without requiring a separate
// SetLogger call.
func Logger() *slog.Logger {
	return hal.Logger()
}
