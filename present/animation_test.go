// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package present

import "testing"

func TestEaseInOutCubicBounds(t *testing.T) {
	if v := easeInOutCubic(0); v != 0 {
		t.Fatalf("ease(0) = %v, want 0", v)
	}
	if v := easeInOutCubic(1); v != 1 {
		t.Fatalf("ease(1) = %v, want 1", v)
	}
	if v := easeInOutCubic(0.5); v != 0.5 {
		t.Fatalf("ease(0.5) = %v, want 0.5 (symmetric curve)", v)
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 0.3: 0.3, 1: 1, 2: 1}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Errorf("clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestBasicAnimationAdvanceClampsToDuration(t *testing.T) {
	a := NewBasicAnimation(1.0)
	a.Advance(0.5)
	if a.Done() {
		t.Fatalf("want not done at 0.5s of 1.0s")
	}
	a.Advance(10)
	if !a.Done() {
		t.Fatalf("want done after overshooting duration")
	}
	if v := a.Value(); v != 1 {
		t.Fatalf("Value() after overshoot = %v, want 1", v)
	}
}

func TestAnimationStateTrackerResetRestartsTimeline(t *testing.T) {
	tr := NewAnimationStateTracker()
	anim := tr.Ensure("transition")
	anim.Advance(0.9)
	if anim.Done() {
		t.Fatalf("want not done at 0.9s")
	}

	tr.Reset()
	anim = tr.Ensure("transition")
	if anim.Value() != 0 {
		t.Fatalf("want fresh timeline after Reset, got Value()=%v", anim.Value())
	}
}

func TestResolveIsCaseInsensitiveWithCrossfadeFallback(t *testing.T) {
	if Resolve("SlideLeft") != slideLeftSingleton {
		t.Fatalf("want case-insensitive match to slideLeftSingleton")
	}
	if Resolve("nonsense") != crossfadeSingleton {
		t.Fatalf("want unknown name to fall back to crossfade")
	}
	if Resolve("crossfade") != Resolve("CROSSFADE") {
		t.Fatalf("want identity-stable resolution regardless of case")
	}
}

func TestCursorTrackerSkipsRedundantUploads(t *testing.T) {
	ct := NewCursorTracker()
	key := CursorKey{Monitor: "m1", Session: "s1"}

	if !ct.ShouldUpload(key, 42, 10, 20) {
		t.Fatalf("want first upload to proceed")
	}
	if ct.ShouldUpload(key, 42, 10, 20) {
		t.Fatalf("want identical state to be skipped")
	}
	if !ct.ShouldUpload(key, 42, 11, 20) {
		t.Fatalf("want moved cursor to re-upload")
	}

	ct.ClearSession("s1")
	if !ct.ShouldUpload(key, 42, 11, 20) {
		t.Fatalf("want cleared session to re-upload")
	}
}
