// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package present

// transitionAnimationName is the single named timeline every transition
// drives: one animation, duration 1.0s, eased by easeInOutCubic.
const transitionAnimationName = "transition"

// easeInOutCubic is the sole easing curve used by every transition
// timeline; p is clamped to [0,1] before this is applied.
func easeInOutCubic(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	f := -2*p + 2
	return 1 - (f*f*f)/2
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// BasicAnimation is a single named timeline of fixed duration that
// advances by wall-clock delta and reports its eased value.
type BasicAnimation struct {
	durationSeconds float64
	elapsed         float64
}

// NewBasicAnimation creates a timeline of the given duration in
// seconds. Every transition in this package uses a 1.0s duration.
func NewBasicAnimation(durationSeconds float64) *BasicAnimation {
	return &BasicAnimation{durationSeconds: durationSeconds}
}

// Advance moves the timeline forward by deltaSeconds.
func (a *BasicAnimation) Advance(deltaSeconds float64) {
	a.elapsed += deltaSeconds
	if a.elapsed > a.durationSeconds {
		a.elapsed = a.durationSeconds
	}
}

// Value returns the eased progress in [0,1].
func (a *BasicAnimation) Value() float64 {
	if a.durationSeconds <= 0 {
		return 1
	}
	return easeInOutCubic(clamp01(a.elapsed / a.durationSeconds))
}

// Done reports whether the timeline has reached its end.
func (a *BasicAnimation) Done() bool {
	return a.elapsed >= a.durationSeconds
}

// AnimationStateTracker drives one or more named animations, advancing
// each by the delta since the tracker was last ticked.
type AnimationStateTracker struct {
	animations map[string]*BasicAnimation
}

// NewAnimationStateTracker constructs an empty tracker.
func NewAnimationStateTracker() *AnimationStateTracker {
	return &AnimationStateTracker{animations: make(map[string]*BasicAnimation)}
}

// Ensure returns the named animation, creating a fresh one-second
// timeline if it does not already exist.
func (t *AnimationStateTracker) Ensure(name string) *BasicAnimation {
	a, ok := t.animations[name]
	if !ok {
		a = NewBasicAnimation(1.0)
		t.animations[name] = a
	}
	return a
}

// Reset discards every tracked animation, restarting all timelines from
// zero on their next Ensure call. Used when a transition's kind changes.
func (t *AnimationStateTracker) Reset() {
	t.animations = make(map[string]*BasicAnimation)
}

// Advance ticks every tracked animation forward by deltaSeconds.
func (t *AnimationStateTracker) Advance(deltaSeconds float64) {
	for _, a := range t.animations {
		a.Advance(deltaSeconds)
	}
}

// TransitionFrame is the read-only view a Transition's Render method
// receives: named animation progress values for this draw.
type TransitionFrame struct {
	values map[string]float64
}

// Value returns the named animation's current progress, or 0 if it was
// never advanced (e.g. the transition has not been ticked this run).
func (f TransitionFrame) Value(name string) float64 {
	return f.values[name]
}

func (t *AnimationStateTracker) Frame() TransitionFrame {
	values := make(map[string]float64, len(t.animations))
	for name, a := range t.animations {
		values[name] = a.Value()
	}
	return TransitionFrame{values: values}
}
