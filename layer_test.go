// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package shift

import (
	"testing"
	"time"

	"github.com/gogpu/shift/fence"
	"github.com/gogpu/shift/present"
)

// newTestLayer builds a RenderingLayer with a real fence.Scheduler (it
// only needs a pipe, not a GPU) but no real DRM/EGL state, so tests can
// exercise command handling and fence promotion without hardware. Tests
// built on this helper must not call frameIteration, Run, or
// reconcileMonitors, which dereference monitorResources.gl/egl/imp and
// the real drm.Device.
func newTestLayer(t *testing.T, monitorIDs ...MonitorId) (*RenderingLayer, chan Event) {
	t.Helper()
	sched, err := fence.New()
	if err != nil {
		t.Fatalf("fence.New: %v", err)
	}
	go sched.RunLoop()
	t.Cleanup(sched.Close)

	events := make(chan Event, 64)
	l := &RenderingLayer{
		cfg:           DefaultConfig(),
		events:        events,
		monitors:      make(map[MonitorId]*monitorResources),
		known:         newKnownMonitors(),
		slots:         newSlotTable(),
		engine:        present.NewEngine(),
		scheduler:     sched,
		fenceEvents:   make(chan fenceSignal, 64),
		transitions:   make(map[MonitorId]*transitionTrigger),
		fenceDeadline: make(map[SlotKey]time.Time),
		quarantined:   make(map[SlotKey]struct{}),
	}
	for _, id := range monitorIDs {
		l.monitors[id] = &monitorResources{desc: MonitorDescriptor{Id: id}}
	}
	return l, events
}

func drainEvents(t *testing.T, ch chan Event) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestSwapBuffersRejectsUnknownMonitor(t *testing.T) {
	l, events := newTestLayer(t)

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "nope", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})

	evs := drainEvents(t, events)
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	rej, ok := evs[0].(BufferRequestRejectedEvent)
	if !ok || rej.Reason != ReasonUnknownMonitor {
		t.Fatalf("want unknown_monitor rejection, got %#v", evs[0])
	}
}

func TestSwapBuffersRejectsUnlinkedBuffer(t *testing.T) {
	l, events := newTestLayer(t, "m1")

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})

	evs := drainEvents(t, events)
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	rej, ok := evs[0].(BufferRequestRejectedEvent)
	if !ok || rej.Reason != ReasonUnlinkedBuffer {
		t.Fatalf("want unlinked_buffer rejection, got %#v", evs[0])
	}
}

func TestSwapBuffersNoFencePromotesImmediately(t *testing.T) {
	l, events := newTestLayer(t, "m1")
	key := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}
	l.slots.install(key, nil)

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})

	evs := drainEvents(t, events)
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	if _, ok := evs[0].(BufferRequestAckEvent); !ok {
		t.Fatalf("want ack, got %#v", evs[0])
	}
	if l.slots.ownership[key] != OwnerShift {
		t.Fatalf("want ownership Shift, got %v", l.slots.ownership[key])
	}
	surf := l.slots.surfaceFor(monSession{Monitor: "m1", Session: "s"})
	if surf.current == nil || *surf.current != SlotZero {
		t.Fatalf("want current=Zero, got %v", surf.current)
	}
}

// TestSwapBuffersFenceSignalsLate covers two swaps on the same
// (monitor,session) with acquire fences, the second superseding the
// first before it signals.
func TestSwapBuffersFenceSignalsLate(t *testing.T) {
	l, events := newTestLayer(t, "m1")
	keyZero := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}
	keyOne := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotOne}
	l.slots.install(keyZero, nil)
	l.slots.install(keyOne, nil)

	r0, w0, err := pipeFds()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	r1, w1, err := pipeFds()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer closeFd(w0)
	defer closeFd(w1)

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: r0})
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotOne, AcquireFence: r1})

	surf := l.slots.surfaceFor(monSession{Monitor: "m1", Session: "s"})
	if surf.pending == nil || *surf.pending != SlotOne {
		t.Fatalf("want pending=One, got %v", surf.pending)
	}
	if _, queued := l.slots.deferred[keyZero]; !queued {
		t.Fatalf("want slot Zero queued for release after supersede")
	}

	evs := drainEvents(t, events)
	acks := 0
	for _, e := range evs {
		if _, ok := e.(BufferRequestAckEvent); ok {
			acks++
		}
	}
	if acks != 2 {
		t.Fatalf("want 2 acks, got %d", acks)
	}

	// Signal fd1: pending One should promote to current.
	var b [1]byte
	writeByte(t, w1, b[:])
	waitForFenceEvent(t, l)

	surf = l.slots.surfaceFor(monSession{Monitor: "m1", Session: "s"})
	if surf.current == nil || *surf.current != SlotOne {
		t.Fatalf("want current=One after fence signal, got %v", surf.current)
	}
	if surf.pending != nil {
		t.Fatalf("want pending cleared, got %v", surf.pending)
	}
}

func TestSessionRemovedSuppressesLateFence(t *testing.T) {
	l, _ := newTestLayer(t, "m1")
	key := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}
	l.slots.install(key, nil)

	r, w, err := pipeFds()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer closeFd(w)

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: r})
	l.handleSessionRemoved(SessionRemovedCommand{SessionId: "s"})

	if _, ok := l.slots.surfaces[monSession{Monitor: "m1", Session: "s"}]; ok {
		t.Fatalf("want surface state purged after SessionRemoved")
	}

	// Signal the fence after removal: handleFenceSignal must be a no-op
	// since the surface state no longer exists.
	l.handleFenceSignal(key)
	if _, ok := l.slots.surfaces[monSession{Monitor: "m1", Session: "s"}]; ok {
		t.Fatalf("fence signal after SessionRemoved must not resurrect state")
	}
}

func TestEvictMonitorPurgesOnlyThatMonitor(t *testing.T) {
	l, events := newTestLayer(t, "m1", "m2")
	l.slots.install(SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}, nil)
	l.slots.install(SlotKey{Monitor: "m2", Session: "s", Buffer: SlotZero}, nil)

	l.evictMonitor("m2")
	drainEvents(t, events)

	if l.slots.hasSlot(SlotKey{Monitor: "m2", Session: "s", Buffer: SlotZero}) {
		t.Fatalf("want m2 slots purged")
	}
	if !l.slots.hasSlot(SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}) {
		t.Fatalf("want m1 slots retained")
	}
	if _, ok := l.monitors["m2"]; ok {
		t.Fatalf("want m2 removed from monitors map")
	}
}

// TestDeferredReleaseEmitsBufferConsumedOnce covers the no-double-release
// property: a buffer displaced by a later swap is released back to the
// client exactly once, even if queued twice in the same flip cycle.
func TestDeferredReleaseEmitsBufferConsumedOnce(t *testing.T) {
	l, events := newTestLayer(t, "m1")
	keyZero := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}
	keyOne := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotOne}
	l.slots.install(keyZero, nil)
	l.slots.install(keyOne, nil)

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotOne, AcquireFence: -1})
	l.slots.queueRelease(keyZero) // second queue of the same displaced slot

	drainEvents(t, events)
	l.drainDeferredReleases()

	evs := drainEvents(t, events)
	consumed := 0
	for _, e := range evs {
		if c, ok := e.(BufferConsumedEvent); ok {
			if c.Buffer != SlotZero {
				t.Fatalf("want Zero consumed, got %v", c.Buffer)
			}
			consumed++
		}
	}
	if consumed != 1 {
		t.Fatalf("want exactly 1 BufferConsumed, got %d", consumed)
	}
	if l.slots.ownership[keyZero] != OwnerClient {
		t.Fatalf("want displaced slot back to Client, got %v", l.slots.ownership[keyZero])
	}
	if l.slots.ownership[keyOne] != OwnerShift {
		t.Fatalf("want current slot still Shift, got %v", l.slots.ownership[keyOne])
	}
}

// TestAcquireFenceTimeoutQuarantinesSlot covers stuck-pending recovery:
// a fence that never signals releases the slot back to the client,
// rejects the request retroactively, and keeps the slot out of service
// until a fresh link re-imports it.
func TestAcquireFenceTimeoutQuarantinesSlot(t *testing.T) {
	l, events := newTestLayer(t, "m1")
	key := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}
	l.slots.install(key, nil)

	r, w, err := pipeFds()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer closeFd(w)

	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: r})
	drainEvents(t, events)

	// Never signal the fence; jump past the deadline instead.
	l.checkAcquireFenceTimeouts(time.Now().Add(l.cfg.AcquireFenceTimeout + time.Second))

	evs := drainEvents(t, events)
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	rej, ok := evs[0].(BufferRequestRejectedEvent)
	if !ok || rej.Reason != ReasonAcquireFenceTimeout {
		t.Fatalf("want acquire_fence_timeout rejection, got %#v", evs[0])
	}
	if l.slots.ownership[key] != OwnerClient {
		t.Fatalf("want ownership back to Client, got %v", l.slots.ownership[key])
	}
	surf := l.slots.surfaceFor(monSession{Monitor: "m1", Session: "s"})
	if surf.pending != nil {
		t.Fatalf("want pending cleared after timeout, got %v", surf.pending)
	}

	// A further swap on the quarantined slot is rejected without state change.
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})
	evs = drainEvents(t, events)
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	if rej, ok := evs[0].(BufferRequestRejectedEvent); !ok || rej.Reason != ReasonAcquireFenceTimeout {
		t.Fatalf("want quarantined slot rejected, got %#v", evs[0])
	}

	// A fresh link lifts the quarantine.
	l.installSlot(key, nil)
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})
	evs = drainEvents(t, events)
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	if _, ok := evs[0].(BufferRequestAckEvent); !ok {
		t.Fatalf("want ack after re-link, got %#v", evs[0])
	}
}

// TestOwnershipExclusivity checks the ownership invariant across a
// representative command sequence: every slot present in the table has
// exactly one owner at every step.
func TestOwnershipExclusivity(t *testing.T) {
	l, events := newTestLayer(t, "m1")
	keyZero := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotZero}
	keyOne := SlotKey{Monitor: "m1", Session: "s", Buffer: SlotOne}
	l.slots.install(keyZero, nil)
	l.slots.install(keyOne, nil)

	check := func(step string) {
		t.Helper()
		for key := range l.slots.textures {
			owner, ok := l.slots.ownership[key]
			if !ok {
				t.Fatalf("%s: slot %+v present without owner", step, key)
			}
			if owner != OwnerClient && owner != OwnerShift {
				t.Fatalf("%s: slot %+v has invalid owner %v", step, key, owner)
			}
		}
	}

	check("after install")
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotZero, AcquireFence: -1})
	check("after first swap")
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "s", Buffer: SlotOne, AcquireFence: -1})
	check("after second swap")
	l.drainDeferredReleases()
	check("after release drain")
	drainEvents(t, events)
}

func TestSessionRemovedClearsActiveSession(t *testing.T) {
	l, _ := newTestLayer(t, "m1")
	s := SessionId("s")
	l.handleSetActiveSession(SetActiveSessionCommand{SessionId: &s})
	l.handleSessionRemoved(SessionRemovedCommand{SessionId: s})
	if l.activeSession != nil {
		t.Fatalf("want active session cleared, got %v", *l.activeSession)
	}
}

// TestSetActiveSessionStartsTransition verifies a session switch arms a
// transition only on monitors actually showing the outgoing session.
func TestSetActiveSessionStartsTransition(t *testing.T) {
	l, _ := newTestLayer(t, "m1", "m2")
	keyA := SlotKey{Monitor: "m1", Session: "a", Buffer: SlotZero}
	l.slots.install(keyA, nil)
	l.handleSwapBuffers(SwapBuffersCommand{MonitorId: "m1", SessionId: "a", Buffer: SlotZero, AcquireFence: -1})

	a, b := SessionId("a"), SessionId("b")
	l.handleSetActiveSession(SetActiveSessionCommand{SessionId: &a})
	l.handleSetActiveSession(SetActiveSessionCommand{SessionId: &b})

	tr, ok := l.transitions["m1"]
	if !ok {
		t.Fatal("want transition armed on m1, which presented session a")
	}
	if tr.prevSession != a {
		t.Fatalf("want prevSession=a, got %v", tr.prevSession)
	}
	if _, ok := l.transitions["m2"]; ok {
		t.Fatal("m2 never presented session a; no transition expected")
	}
}

func waitForFenceEvent(t *testing.T, l *RenderingLayer) {
	t.Helper()
	select {
	case sig := <-l.fenceEvents:
		l.handleFenceSignal(sig.key)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fence signal")
	}
}
