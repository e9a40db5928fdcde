// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package egl

import (
	"fmt"
	"strings"
)

// QueryClientExtensions returns EGL client extensions available without a
// display. This MUST be called with NoDisplay: client extensions are the
// ones queryable before any display is initialized.
func QueryClientExtensions() string {
	return QueryString(NoDisplay, Extensions)
}

// HasSurfacelessSupport reports whether the driver advertises
// EGL_MESA_platform_surfaceless. The rendering layer never opens a native
// window or pixmap, so this is the only platform capability it depends on.
func HasSurfacelessSupport() bool {
	return strings.Contains(QueryClientExtensions(), "EGL_MESA_platform_surfaceless")
}

// GetEGLDisplay returns the EGL display this compositor renders through.
// Every monitor's context is surfaceless and pbuffer-backed — frames reach
// the screen via DRM atomic commits, not an EGL window surface — so unlike
// a windowed client this never probes X11 or Wayland; it goes straight for
// the EGL_MESA_platform_surfaceless platform and falls back to the EGL 1.4
// default display only if the driver lacks the platform extension
// entirely (some older Mesa builds, and most proprietary drivers running
// in a VT without a compositor).
func GetEGLDisplay() (EGLDisplay, error) {
	if HasSurfacelessSupport() {
		if display := GetPlatformDisplay(PlatformSurfacelessMesa, 0, nil); display != NoDisplay {
			return display, nil
		}
	}

	display := GetDisplay(DefaultDisplay)
	if display == NoDisplay {
		return NoDisplay, fmt.Errorf("eglGetDisplay failed: no surfaceless platform and no default display")
	}
	return display, nil
}
