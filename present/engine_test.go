// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package present

import "testing"

// resolveTransition carries the transition-lifecycle state machine and
// needs no GL context, so its three behaviors — create, continue/reset,
// clear — are pinned down here directly.

func TestResolveTransitionCreatesAndAdvancesTimeline(t *testing.T) {
	e := NewEngine()

	at := e.resolveTransition("m1", &TransitionSnapshot{Kind: "crossfade", Progress: 0.1}, 0.25)
	if at == nil {
		t.Fatal("want an active transition for progress < 1.0")
	}
	if at.transition != crossfadeSingleton {
		t.Fatalf("want crossfade singleton, got %v", at.transition.Name())
	}
	first := at.timeline.Frame().Value(transitionAnimationName)
	if first <= 0 {
		t.Fatalf("timeline must advance on the creating call, got %v", first)
	}

	at2 := e.resolveTransition("m1", &TransitionSnapshot{Kind: "CROSSFADE", Progress: 0.5}, 0.25)
	if at2 != at {
		t.Fatal("same kind must continue the existing timeline, not recreate it")
	}
	if second := at2.timeline.Frame().Value(transitionAnimationName); second <= first {
		t.Fatalf("timeline must keep advancing: %v then %v", first, second)
	}
}

func TestResolveTransitionResetsOnKindChange(t *testing.T) {
	e := NewEngine()

	at := e.resolveTransition("m1", &TransitionSnapshot{Kind: "slideLeft", Progress: 0.2}, 0.6)
	before := at.timeline.Frame().Value(transitionAnimationName)
	if before <= 0 {
		t.Fatalf("want advanced timeline, got %v", before)
	}

	at2 := e.resolveTransition("m1", &TransitionSnapshot{Kind: "blur", Progress: 0.2}, 0.1)
	if at2 == at {
		t.Fatal("kind change must recreate the active transition")
	}
	if at2.transition != blurSingleton {
		t.Fatalf("want blur singleton, got %v", at2.transition.Name())
	}
	after := at2.timeline.Frame().Value(transitionAnimationName)
	if after >= before {
		t.Fatalf("new kind must restart the timeline: %v then %v", before, after)
	}
}

func TestResolveTransitionClearsAtFullProgress(t *testing.T) {
	e := NewEngine()

	e.resolveTransition("m1", &TransitionSnapshot{Kind: "crossfade", Progress: 0.5}, 0.1)
	if _, ok := e.transitions["m1"]; !ok {
		t.Fatal("want transition recorded mid-flight")
	}

	if at := e.resolveTransition("m1", &TransitionSnapshot{Kind: "crossfade", Progress: 1.0}, 0.1); at != nil {
		t.Fatal("progress >= 1.0 must clear the active transition")
	}
	if _, ok := e.transitions["m1"]; ok {
		t.Fatal("want transition state discarded at progress >= 1.0")
	}

	e.resolveTransition("m1", &TransitionSnapshot{Kind: "crossfade", Progress: 0.5}, 0.1)
	if at := e.resolveTransition("m1", nil, 0.1); at != nil {
		t.Fatal("a snapshot with no transition must clear the active transition")
	}
}

func TestForgetMonitorDropsAllState(t *testing.T) {
	e := NewEngine()
	e.resolveTransition("m1", &TransitionSnapshot{Kind: "crossfade", Progress: 0.5}, 0.1)
	e.cursors.ShouldUpload(CursorKey{Monitor: "m1", Session: "s"}, 1, 0, 0)

	e.ForgetMonitor("m1")
	if _, ok := e.transitions["m1"]; ok {
		t.Fatal("want transition state dropped")
	}
	if !e.cursors.ShouldUpload(CursorKey{Monitor: "m1", Session: "s"}, 1, 0, 0) {
		t.Fatal("want cursor state dropped with the monitor")
	}
}
