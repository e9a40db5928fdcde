// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shift

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ButtonMap selects the physical-to-logical mapping of a three-button
// tap gesture.
type ButtonMap int

const (
	// ButtonMapLRM maps taps left-right-middle (the default).
	ButtonMapLRM ButtonMap = iota
	// ButtonMapLMR maps taps left-middle-right.
	ButtonMapLMR
)

// Config holds the SHIFT_* environment configuration. Input-related
// fields are surfaced here (not consumed by this module) because the
// external input capture collaborator is configured from the same
// process environment.
type Config struct {
	InputSeat           string
	InputTapToClick     bool
	InputTapDrag        bool
	InputTapDragLock    bool
	InputTapButtonMap   ButtonMap
	MaxOpenFDs          int // debug builds only
	AcquireFenceTimeout time.Duration

	// DefaultTransition names the transition kind the rendering layer
	// applies when the active session changes. Not one of the
	// documented SHIFT_* variables; the command set carries no way for
	// the control plane to choose a kind per-switch, so this fills that
	// gap (see DESIGN.md).
	DefaultTransition string
}

// DefaultConfig returns the documented defaults for every SHIFT_*
// variable, unmodified by the environment.
func DefaultConfig() Config {
	return Config{
		InputSeat:           "seat0",
		InputTapToClick:     true,
		InputTapDrag:        true,
		InputTapDragLock:    false,
		InputTapButtonMap:   ButtonMapLRM,
		MaxOpenFDs:          4096,
		AcquireFenceTimeout: 2 * time.Second,
		DefaultTransition:   "crossfade",
	}
}

// LoadConfig reads Config from the process environment, falling back to
// DefaultConfig for anything unset or malformed.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("SHIFT_INPUT_SEAT"); ok && v != "" {
		cfg.InputSeat = v
	}
	if v, ok := os.LookupEnv("SHIFT_INPUT_TAP_TO_CLICK"); ok {
		cfg.InputTapToClick = parseBool(v, cfg.InputTapToClick)
	}
	if v, ok := os.LookupEnv("SHIFT_INPUT_TAP_DRAG"); ok {
		cfg.InputTapDrag = parseBool(v, cfg.InputTapDrag)
	}
	if v, ok := os.LookupEnv("SHIFT_INPUT_TAP_DRAG_LOCK"); ok {
		cfg.InputTapDragLock = parseBool(v, cfg.InputTapDragLock)
	}
	if v, ok := os.LookupEnv("SHIFT_INPUT_TAP_BUTTON_MAP"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "lmr":
			cfg.InputTapButtonMap = ButtonMapLMR
		default:
			cfg.InputTapButtonMap = ButtonMapLRM
		}
	}
	if v, ok := os.LookupEnv("SHIFT_MAX_OPEN_FDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxOpenFDs = n
		}
	}
	if v, ok := os.LookupEnv("SHIFT_TRANSITION_KIND"); ok && v != "" {
		cfg.DefaultTransition = v
	}
	if v, ok := os.LookupEnv("SHIFT_ACQUIRE_FENCE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AcquireFenceTimeout = d
		} else if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AcquireFenceTimeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

// parseBool accepts the usual environment-variable boolean grammar:
// "0", "false", "off", "no" (case-insensitive) are false; anything else
// is true.
func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "off", "no":
		return false
	case "":
		return fallback
	default:
		return true
	}
}
