// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shift

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SHIFT_INPUT_SEAT", "SHIFT_INPUT_TAP_TO_CLICK", "SHIFT_INPUT_TAP_DRAG",
		"SHIFT_INPUT_TAP_DRAG_LOCK", "SHIFT_INPUT_TAP_BUTTON_MAP",
		"SHIFT_MAX_OPEN_FDS", "SHIFT_TRANSITION_KIND", "SHIFT_ACQUIRE_FENCE_TIMEOUT",
	} {
		t.Setenv(key, "")
		// t.Setenv cannot unset; empty values fall through to defaults
		// for every variable here by construction.
	}

	cfg := LoadConfig()
	want := DefaultConfig()
	if cfg.InputSeat != want.InputSeat {
		t.Errorf("InputSeat = %q, want %q", cfg.InputSeat, want.InputSeat)
	}
	if cfg.InputTapToClick != true || cfg.InputTapDrag != true || cfg.InputTapDragLock != false {
		t.Errorf("tap defaults = %v/%v/%v, want true/true/false",
			cfg.InputTapToClick, cfg.InputTapDrag, cfg.InputTapDragLock)
	}
	if cfg.InputTapButtonMap != ButtonMapLRM {
		t.Errorf("InputTapButtonMap = %v, want LRM", cfg.InputTapButtonMap)
	}
	if cfg.MaxOpenFDs != 4096 {
		t.Errorf("MaxOpenFDs = %d, want 4096", cfg.MaxOpenFDs)
	}
	if cfg.AcquireFenceTimeout != 2*time.Second {
		t.Errorf("AcquireFenceTimeout = %v, want 2s", cfg.AcquireFenceTimeout)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SHIFT_INPUT_SEAT", "seat1")
	t.Setenv("SHIFT_INPUT_TAP_TO_CLICK", "off")
	t.Setenv("SHIFT_INPUT_TAP_DRAG", "0")
	t.Setenv("SHIFT_INPUT_TAP_DRAG_LOCK", "yes")
	t.Setenv("SHIFT_INPUT_TAP_BUTTON_MAP", "LMR")
	t.Setenv("SHIFT_MAX_OPEN_FDS", "128")
	t.Setenv("SHIFT_TRANSITION_KIND", "slideLeft")
	t.Setenv("SHIFT_ACQUIRE_FENCE_TIMEOUT", "500ms")

	cfg := LoadConfig()
	if cfg.InputSeat != "seat1" {
		t.Errorf("InputSeat = %q", cfg.InputSeat)
	}
	if cfg.InputTapToClick {
		t.Error("want tap-to-click off")
	}
	if cfg.InputTapDrag {
		t.Error("want tap-drag off")
	}
	if !cfg.InputTapDragLock {
		t.Error("want tap-drag-lock on: any non-false token is true")
	}
	if cfg.InputTapButtonMap != ButtonMapLMR {
		t.Errorf("InputTapButtonMap = %v, want LMR", cfg.InputTapButtonMap)
	}
	if cfg.MaxOpenFDs != 128 {
		t.Errorf("MaxOpenFDs = %d", cfg.MaxOpenFDs)
	}
	if cfg.DefaultTransition != "slideLeft" {
		t.Errorf("DefaultTransition = %q", cfg.DefaultTransition)
	}
	if cfg.AcquireFenceTimeout != 500*time.Millisecond {
		t.Errorf("AcquireFenceTimeout = %v", cfg.AcquireFenceTimeout)
	}
}

func TestParseBoolGrammar(t *testing.T) {
	falsy := []string{"0", "false", "FALSE", "off", "Off", "no"}
	for _, v := range falsy {
		if parseBool(v, true) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
	truthy := []string{"1", "true", "on", "anything", "yes"}
	for _, v := range truthy {
		if !parseBool(v, false) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	if !parseBool("", true) || parseBool("", false) {
		t.Error("empty value must fall back to the default")
	}
}

func TestParseBufferSlotRejectsOutOfDomain(t *testing.T) {
	if _, err := ParseBufferSlot(0); err != nil {
		t.Errorf("ParseBufferSlot(0): %v", err)
	}
	if _, err := ParseBufferSlot(1); err != nil {
		t.Errorf("ParseBufferSlot(1): %v", err)
	}
	if _, err := ParseBufferSlot(2); err == nil {
		t.Error("ParseBufferSlot(2) must fail: buffer slots are a closed two-value domain")
	}
}
