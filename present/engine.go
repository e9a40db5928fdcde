// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package present implements the per-frame session-presentation
// algorithm: selecting which session's texture is drawn
// to each monitor, animating a transition between an outgoing and
// incoming session when the control plane reports one in flight, and
// tracking per-monitor FPS and hardware cursor redundancy.
package present

import (
	"time"

	"github.com/gogpu/shift/hal/dmabuf"
	"github.com/gogpu/shift/hal/gles/gl"
	"github.com/gogpu/shift/render"
)

// Snapshot is what the rendering layer hands the engine once per
// monitor per frame: everything needed to pick and draw this frame's
// texture(s) without the engine needing to know about slot tables,
// ownership, or the control-plane wire format.
type Snapshot struct {
	MonitorID string

	ActiveTexture *dmabuf.Texture
	ActiveSession string // empty means absent

	PrevTexture *dmabuf.Texture
	PrevSession string // empty means absent

	Transition *TransitionSnapshot // nil means no transition in flight
}

// TransitionSnapshot is the control plane's view of an in-progress
// transition, carried alongside a Snapshot.
type TransitionSnapshot struct {
	Kind            string // resolved case-insensitively, see Resolve
	Progress        float64
	PreviousSession string
}

// Presented reports that a session's texture was drawn to a monitor
// this frame — either as the sole content or as one side of a
// transition blend.
type Presented struct {
	MonitorID string
	Session   string
}

// activeTransition mirrors the root data model's ActiveTransition: it
// lives only while the control plane reports an in-progress transition
// with progress < 1.0, is recreated when the transition kind changes,
// and is discarded once progress reaches 1.0.
type activeTransition struct {
	transition Transition
	timeline   *AnimationStateTracker
}

// Engine is the PresentationEngine: one instance serves every monitor,
// keyed internally by MonitorID.
type Engine struct {
	transitions map[string]*activeTransition
	fps         map[string]*fpsCounter
	cursors     *CursorTracker
	lastTick    time.Time
	haveLast    bool
}

// NewEngine constructs an Engine with no per-monitor state; state is
// created lazily as monitors present their first frame.
func NewEngine() *Engine {
	return &Engine{
		transitions: make(map[string]*activeTransition),
		fps:         make(map[string]*fpsCounter),
		cursors:     NewCursorTracker(),
	}
}

// Cursors exposes the engine's cursor tracker so the root package can
// route SessionRemoved/MonitorOffline eviction through the same
// instance the draw path consults.
func (e *Engine) Cursors() *CursorTracker { return e.cursors }

// Present draws one monitor's frame: resolve/advance any in-flight
// transition, then draw according to which of {transition, active,
// previous-tail, nothing} applies. The caller has already made mon's
// GL context current for this monitor; Present additionally sets the
// viewport and clears to opaque black before drawing.
func (e *Engine) Present(mon *render.MonitorRenderState, snap Snapshot) ([]Presented, error) {
	now := time.Now()
	var dt float64
	if e.haveLast {
		dt = now.Sub(e.lastTick).Seconds()
	}

	ctx := mon.GL()
	ctx.Viewport(0, 0, int32(mon.Width()), int32(mon.Height()))
	ctx.ClearColor(0, 0, 0, 1)
	ctx.Clear(gl.COLOR_BUFFER_BIT)

	at := e.resolveTransition(snap.MonitorID, snap.Transition, dt)

	var presented []Presented
	switch {
	case at != nil && snap.Transition != nil && snap.ActiveTexture != nil && snap.PrevTexture != nil &&
		snap.ActiveSession != "" && snap.PrevSession != "":
		frame := at.timeline.Frame()
		if err := at.transition.Render(mon, snap.PrevTexture, snap.ActiveTexture, frame); err != nil {
			return nil, err
		}
		presented = append(presented,
			Presented{MonitorID: snap.MonitorID, Session: snap.PrevSession},
			Presented{MonitorID: snap.MonitorID, Session: snap.ActiveSession},
		)

	case snap.ActiveTexture != nil && snap.ActiveSession != "":
		if err := mon.DrawTexture(snap.ActiveTexture); err != nil {
			return nil, err
		}
		presented = append(presented, Presented{MonitorID: snap.MonitorID, Session: snap.ActiveSession})

	case snap.PrevTexture != nil && snap.PrevSession != "":
		// Tail of a transition that just ended: the control plane has
		// stopped reporting it, but this frame still shows the
		// outgoing session rather than popping to black.
		if err := mon.DrawTexture(snap.PrevTexture); err != nil {
			return nil, err
		}
		presented = append(presented, Presented{MonitorID: snap.MonitorID, Session: snap.PrevSession})

	default:
		// Cleared to black above; nothing further to draw.
	}

	e.tickFPS(snap.MonitorID, now)
	e.lastTick = now
	e.haveLast = true
	return presented, nil
}

// resolveTransition ensures the per-monitor active transition matches
// the snapshot's reported kind
// (resetting its timeline on a kind change), advance it by dt, or clear
// it entirely once the snapshot stops reporting one or progress reaches
// 1.0.
func (e *Engine) resolveTransition(monitorID string, ts *TransitionSnapshot, dt float64) *activeTransition {
	if ts == nil || ts.Progress >= 1.0 {
		if _, ok := e.transitions[monitorID]; ok {
			delete(e.transitions, monitorID)
		}
		return nil
	}

	kind := Resolve(ts.Kind)
	at, ok := e.transitions[monitorID]
	if !ok || at.transition != kind {
		at = &activeTransition{transition: kind, timeline: NewAnimationStateTracker()}
		at.timeline.Ensure(transitionAnimationName)
		e.transitions[monitorID] = at
	}
	at.timeline.Advance(dt)
	return at
}

type fpsCounter struct {
	windowStart time.Time
	frames      int
	lastFPS     float64
}

func (e *Engine) tickFPS(monitorID string, now time.Time) {
	c, ok := e.fps[monitorID]
	if !ok {
		c = &fpsCounter{windowStart: now}
		e.fps[monitorID] = c
	}
	c.frames++
	if elapsed := now.Sub(c.windowStart); elapsed >= time.Second {
		c.lastFPS = float64(c.frames) / elapsed.Seconds()
		c.frames = 0
		c.windowStart = now
	}
}

// FPS returns the most recently completed one-second window's frame
// rate for monitorID, or 0 if a full window has not elapsed yet.
func (e *Engine) FPS(monitorID string) float64 {
	if c, ok := e.fps[monitorID]; ok {
		return c.lastFPS
	}
	return 0
}

// ForgetMonitor drops transition and FPS state for a monitor that has
// gone offline.
func (e *Engine) ForgetMonitor(monitorID string) {
	delete(e.transitions, monitorID)
	delete(e.fps, monitorID)
	e.cursors.ClearMonitor(monitorID)
}
