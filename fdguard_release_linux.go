// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux && !shift_debug

package shift

// startFDGuard is a no-op outside debug builds (-tags shift_debug).
func (l *RenderingLayer) startFDGuard(stop <-chan struct{}) {}
