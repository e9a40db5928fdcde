// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shift implements the rendering core of a multi-session display
// compositor: KMS/DRM page-flip driven display output, DMA-BUF client
// buffer import, and session presentation with transitions.
//
// The package owns the cooperative RenderingLayer state machine
// (layer.go) and the data model it mutates (ids.go, slots.go,
// monitors.go). Hardware-facing code lives under hal/ (EGL/GLES
// bindings, DMA-BUF import, DRM/KMS); fence.Scheduler and the wire
// package are standalone collaborators reached only through channels.
package shift
