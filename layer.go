// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package shift

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gogpu/shift/fence"
	"github.com/gogpu/shift/hal/dmabuf"
	"github.com/gogpu/shift/hal/drm"
	"github.com/gogpu/shift/hal/gles/egl"
	"github.com/gogpu/shift/hal/gles/gl"
	"github.com/gogpu/shift/internal/thread"
	"github.com/gogpu/shift/present"
	"github.com/gogpu/shift/render"
)

// idleBackstop bounds how long a frame iteration may block waiting for
// a DRM page-flip event when the previous frame committed nothing to
// scan out.
const idleBackstop = 2 * time.Millisecond

// flipWaitFallback bounds the wait after a frame that did commit: the
// DRM fd normally signals the flip well before this, so it only fires
// if the driver never delivers the event.
const flipWaitFallback = 100 * time.Millisecond

// hotplugPollInterval is how often the loop re-polls connector status
// between DRM-reported events; real hot-plug notification normally
// arrives over a udev/netlink socket this module does not own, so a
// short poll closes the gap without requiring that collaborator.
const hotplugPollInterval = 500 * time.Millisecond

// transitionDuration matches present.BasicAnimation's fixed one-second
// timeline: every transition always runs exactly one named animation
// lasting 1.0s.
const transitionDuration = 1 * time.Second

// monitorResources bundles one physical output's GPU-facing state: its
// own EGL context (distinct contexts are not shared across monitors —
// each connector owns its context exclusively), GL function table,
// DMA-BUF importer bound to that context, and render state.
type monitorResources struct {
	desc   MonitorDescriptor
	crtcID uint32
	egl    *egl.Context
	gl     *gl.Context
	imp    *dmabuf.Importer
	rstate *render.MonitorRenderState
}

// transitionTrigger records that a monitor started presenting a new
// active session at startedAt; RenderingLayer derives each frame's
// progress from elapsed wall-clock time rather than an external
// control-plane value, since the command set carries no explicit
// per-frame transition progress field (see DESIGN.md).
type transitionTrigger struct {
	startedAt   time.Time
	kind        string
	prevSession SessionId
}

// fenceSignal is the sole payload crossing from the dedicated
// fence.Scheduler thread into the rendering loop's select statement;
// the callback that produced it must have done nothing but send this.
type fenceSignal struct {
	key SlotKey
}

// RenderingLayer is the top-level cooperative state machine: it owns
// the monitor set, the slot table, the fence scheduler, and the
// command/event channels to the control plane. Every EGL/GL call —
// context creation, MakeCurrent, and the whole Run loop — is funneled
// through a single internal/thread.Thread so all monitors' GL contexts
// live and are driven from the same locked OS thread, regardless of
// which goroutine calls NewRenderingLayer or Run.
type RenderingLayer struct {
	cfg Config

	commands <-chan Command
	events   chan<- Event

	dev          *drm.Device
	monitors     map[MonitorId]*monitorResources
	known        *knownMonitors
	renderThread *thread.Thread

	slots  *slotTable
	engine *present.Engine

	scheduler   *fence.Scheduler
	fenceEvents chan fenceSignal

	transitions   map[MonitorId]*transitionTrigger
	fenceDeadline map[SlotKey]time.Time // pending acquire fences' give-up deadlines
	quarantined   map[SlotKey]struct{}  // slots that timed out; out of service until re-linked

	fdGuardFatal chan struct{} // closed by startFDGuard when MaxOpenFDs is exceeded (shift_debug builds only)

	activeSession *SessionId
	lastCommitted bool // false when the prior frame flipped nothing
}

// NewRenderingLayer opens the DRM device, discovers its connectors, and
// brings up one EGL/GL context per monitor. commands and events are the
// control-plane channels; the caller owns their lifetime and must close
// commands to let a dropped-channel exit fire.
func NewRenderingLayer(cfg Config, commands <-chan Command, events chan<- Event) (*RenderingLayer, error) {
	dev, err := drm.Open(drm.DefaultCardPath())
	if err != nil {
		return nil, &RenderError{Kind: KindDrmFailure, Cause: err}
	}

	sched, err := fence.New()
	if err != nil {
		_ = dev.Close()
		return nil, &RenderError{Kind: KindGlInterfaceInit, Cause: fmt.Errorf("fence scheduler: %w", err)}
	}

	l := &RenderingLayer{
		cfg:           cfg,
		commands:      commands,
		events:        events,
		dev:           dev,
		monitors:      make(map[MonitorId]*monitorResources),
		known:         newKnownMonitors(),
		slots:         newSlotTable(),
		engine:        present.NewEngine(),
		scheduler:     sched,
		fenceEvents:   make(chan fenceSignal, 64),
		transitions:   make(map[MonitorId]*transitionTrigger),
		fenceDeadline: make(map[SlotKey]time.Time),
		quarantined:   make(map[SlotKey]struct{}),
		fdGuardFatal:  make(chan struct{}),
		renderThread:  thread.New(),
	}

	go l.scheduler.RunLoop()

	var initErr error
	var started []MonitorDescriptor
	l.renderThread.CallVoid(func() {
		if err := egl.Init(); err != nil {
			initErr = &RenderError{Kind: KindGlInterfaceInit, Cause: err}
			return
		}
		conns, err := dev.Connectors()
		if err != nil {
			initErr = &RenderError{Kind: KindDrmFailure, Cause: err}
			return
		}
		for _, c := range conns {
			if c.Status != drm.StatusConnected {
				continue
			}
			id := MonitorId(fmt.Sprintf("mon-%d", c.ID))
			desc := MonitorDescriptor{
				Id:          id,
				Width:       c.ModeWidth,
				Height:      c.ModeHeight,
				RefreshRate: c.RefreshHz,
				Name:        fmt.Sprintf("DRM-%d", c.ID),
			}
			res, err := l.bringUpMonitor(desc, c.CrtcID)
			if err != nil {
				Logger().Warn("shift: monitor init failed, skipping", "monitor", id, "err", err)
				continue
			}
			l.monitors[id] = res
			started = append(started, desc)
		}
	})
	if initErr != nil {
		_ = l.Close()
		return nil, initErr
	}
	l.known.reconcile(started)

	l.emit(StartedEvent{Monitors: started})
	return l, nil
}

func (l *RenderingLayer) bringUpMonitor(desc MonitorDescriptor, crtcID uint32) (*monitorResources, error) {
	eglCtx, err := egl.NewContext(egl.ContextConfig{GLVersionMajor: 3, GLVersionMinor: 0, GLES: true})
	if err != nil {
		return nil, &RenderError{Kind: KindGlInterfaceInit, Monitor: desc.Id, Cause: err}
	}
	if err := eglCtx.MakeCurrent(); err != nil {
		eglCtx.Destroy()
		return nil, &RenderError{Kind: KindMakeCurrent, Monitor: desc.Id, Cause: err}
	}

	glCtx := &gl.Context{}
	if err := glCtx.Load(egl.GetGLProcAddress); err != nil {
		eglCtx.Destroy()
		return nil, &RenderError{Kind: KindGlInterfaceInit, Monitor: desc.Id, Cause: err}
	}

	imp, err := dmabuf.NewImporter(eglCtx, glCtx)
	if err != nil {
		eglCtx.Destroy()
		return nil, &RenderError{Kind: KindDmaBufImport, Monitor: desc.Id, Cause: err}
	}

	rstate := render.NewMonitorRenderState(desc.Name, glCtx)
	rstate.EnsureSurfaceTarget(desc.Width, desc.Height, 0)

	return &monitorResources{
		desc:   desc,
		crtcID: crtcID,
		egl:    eglCtx,
		gl:     glCtx,
		imp:    imp,
		rstate: rstate,
	}, nil
}

// Close tears down every monitor's EGL context and the DRM device. Not
// called by Run itself; the caller invokes it after Run returns.
func (l *RenderingLayer) Close() error {
	l.renderThread.CallVoid(func() {
		for _, m := range l.monitors {
			m.egl.Destroy()
		}
	})
	l.renderThread.Stop()
	l.scheduler.Close()
	return l.dev.Close()
}

func (l *RenderingLayer) emit(ev Event) {
	select {
	case l.events <- ev:
	default:
		// A full event channel only logs rather than blocking: stalling
		// a frame on a slow control-plane consumer would back up the
		// whole render loop behind it.
		Logger().Warn("shift: event channel full, dropping", "event", fmt.Sprintf("%T", ev))
	}
}

// Run drives the cooperative main loop until Shutdown is processed, the
// command channel is closed, or a fatal error occurs. The loop body
// runs entirely on l.renderThread, the same locked OS thread every
// monitor's EGL context was made current on, so Run may safely be
// called from any goroutine.
func (l *RenderingLayer) Run(ctx context.Context) error {
	var result error
	l.renderThread.CallVoid(func() {
		result = l.runLoop(ctx)
	})
	return result
}

func (l *RenderingLayer) runLoop(ctx context.Context) error {
	drmReadable := make(chan struct{}, 1)
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go watchDRMFd(watchCtx, l.dev.Fd(), drmReadable)

	fdGuardStop := make(chan struct{})
	defer close(fdGuardStop)
	l.startFDGuard(fdGuardStop)

	hotplugTicker := time.NewTicker(hotplugPollInterval)
	defer hotplugTicker.Stop()

	for {
		if err := l.frameIteration(); err != nil {
			if re, ok := err.(*RenderError); ok && re.Kind.Fatal() {
				l.emit(FatalErrorEvent{Reason: re.Error()})
				return re
			}
			Logger().Warn("shift: frame iteration error", "err", err)
		}

		wait := idleBackstop
		if l.lastCommitted {
			// A committed frame will produce a page-flip wakeup on the
			// DRM fd; no need to spin on the short idle branch.
			wait = flipWaitFallback
		}
		backstop := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			backstop.Stop()
			return ctx.Err()

		case cmd, ok := <-l.commands:
			backstop.Stop()
			if !ok {
				Logger().Warn("shift: control channel dropped, exiting")
				return ErrShutdown
			}
			if done := l.handleCommand(cmd); done {
				return nil
			}

		case sig := <-l.fenceEvents:
			backstop.Stop()
			l.handleFenceSignal(sig.key)

		case <-drmReadable:
			backstop.Stop()
			l.handleDRMEvents()

		case <-hotplugTicker.C:
			backstop.Stop()
			l.reconcileMonitors()

		case <-l.fdGuardFatal:
			backstop.Stop()
			re := &RenderError{Kind: KindFdGuardExceeded, Cause: fmt.Errorf("open fd count exceeded SHIFT_MAX_OPEN_FDS=%d", l.cfg.MaxOpenFDs)}
			l.emit(FatalErrorEvent{Reason: re.Error()})
			return re

		case <-backstop.C:
			// Nothing to wait on this cycle, loop again.
		}
	}
}

// watchDRMFd polls fd for readability and signals ready on ch, never
// itself touching GL state; the main loop performs the actual
// ReadEvents call on its own thread.
func watchDRMFd(ctx context.Context, fd int, ch chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if pollReadable(fd, 50) {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// handleCommand dispatches one control-plane command,
// returning true when the loop should exit (Shutdown).
func (l *RenderingLayer) handleCommand(cmd Command) bool {
	switch c := cmd.(type) {
	case ShutdownCommand:
		return true

	case FramebufferLinkCommand:
		l.handleFramebufferLink(c)

	case SetActiveSessionCommand:
		l.handleSetActiveSession(c)

	case SessionRemovedCommand:
		l.handleSessionRemoved(c)

	case SwapBuffersCommand:
		l.handleSwapBuffers(c)
	}
	return false
}

func (l *RenderingLayer) handleFramebufferLink(c FramebufferLinkCommand) {
	mon, ok := l.monitors[c.MonitorId]
	if !ok {
		// Silently dropped: a link for an unknown monitor has nothing to attach to.
		closeFdsBestEffort(c.Fds[:])
		return
	}

	layout := dmabuf.PlaneLayout{Width: c.Width, Height: c.Height, Stride: c.Stride, Offset: c.Offset, FourCC: c.FourCC}
	for i, slot := range [2]BufferSlot{SlotZero, SlotOne} {
		tex, err := mon.imp.Import(c.Fds[i], layout)
		if err != nil {
			Logger().Warn("shift: dma-buf import failed, slot not installed",
				"monitor", c.MonitorId, "session", c.SessionId, "buffer", slot, "err", err)
			continue
		}
		l.installSlot(SlotKey{Monitor: c.MonitorId, Session: c.SessionId, Buffer: slot}, tex)
	}
}

// installSlot registers a freshly-imported texture and lifts any
// acquire-fence-timeout quarantine on the key: a new FramebufferLink is
// the one way a quarantined slot comes back into service.
func (l *RenderingLayer) installSlot(key SlotKey, tex *dmabuf.Texture) {
	l.slots.install(key, tex)
	delete(l.quarantined, key)
}

func (l *RenderingLayer) handleSetActiveSession(c SetActiveSessionCommand) {
	prev := l.activeSession
	l.activeSession = c.SessionId

	if prev == nil || c.SessionId == nil || *prev == *c.SessionId {
		return
	}
	now := time.Now()
	for id := range l.monitors {
		if l.monitorHasCurrent(id, *prev) {
			l.transitions[id] = &transitionTrigger{startedAt: now, kind: l.cfg.DefaultTransition, prevSession: *prev}
		}
	}
}

func (l *RenderingLayer) monitorHasCurrent(id MonitorId, session SessionId) bool {
	s, ok := l.slots.surfaces[monSession{Monitor: id, Session: session}]
	return ok && s.current != nil
}

func (l *RenderingLayer) handleSessionRemoved(c SessionRemovedCommand) {
	cancelled := l.slots.purgeSession(c.SessionId)
	for _, h := range cancelled {
		l.scheduler.Cancel(fence.Handle(h))
	}
	for id, t := range l.transitions {
		if t.prevSession == c.SessionId {
			delete(l.transitions, id)
		}
	}
	for key := range l.fenceDeadline {
		if key.Session == c.SessionId {
			delete(l.fenceDeadline, key)
		}
	}
	for key := range l.quarantined {
		if key.Session == c.SessionId {
			delete(l.quarantined, key)
		}
	}
	l.engine.Cursors().ClearSession(string(c.SessionId))
	if l.activeSession != nil && *l.activeSession == c.SessionId {
		l.activeSession = nil
	}
}

// handleSwapBuffers validates and applies a client's request to present
// a newly-rendered buffer, installing it as pending (behind its acquire
// fence) or promoting it to current immediately when there is none.
func (l *RenderingLayer) handleSwapBuffers(c SwapBuffersCommand) {
	key := SlotKey{Monitor: c.MonitorId, Session: c.SessionId, Buffer: c.Buffer}

	if _, known := l.monitors[c.MonitorId]; !known {
		l.emit(BufferRequestRejectedEvent{SessionId: c.SessionId, MonitorId: c.MonitorId, Buffer: c.Buffer, Reason: ReasonUnknownMonitor})
		closeFdsBestEffort([]int{c.AcquireFence})
		return
	}
	if !l.slots.hasSlot(key) {
		l.emit(BufferRequestRejectedEvent{SessionId: c.SessionId, MonitorId: c.MonitorId, Buffer: c.Buffer, Reason: ReasonUnlinkedBuffer})
		closeFdsBestEffort([]int{c.AcquireFence})
		return
	}
	if _, q := l.quarantined[key]; q {
		// A slot whose acquire fence once timed out stays out of
		// service until a fresh FramebufferLink re-imports it.
		l.emit(BufferRequestRejectedEvent{SessionId: c.SessionId, MonitorId: c.MonitorId, Buffer: c.Buffer, Reason: ReasonAcquireFenceTimeout})
		closeFdsBestEffort([]int{c.AcquireFence})
		return
	}

	ms := monSession{Monitor: c.MonitorId, Session: c.SessionId}
	surf := l.slots.surfaceFor(ms)

	if surf.pending != nil && *surf.pending != c.Buffer {
		pendingKey := SlotKey{Monitor: c.MonitorId, Session: c.SessionId, Buffer: *surf.pending}
		if h, ok := l.slots.fenceTask[pendingKey]; ok {
			l.scheduler.Cancel(fence.Handle(h))
			delete(l.slots.fenceTask, pendingKey)
		}
		l.slots.queueRelease(pendingKey)
	}

	if c.HasAcquireFence() {
		l.scheduleAcquireFence(key, c.AcquireFence)
		buf := c.Buffer
		surf.pending = &buf
	} else {
		buf := c.Buffer
		if surf.current != nil && *surf.current != buf {
			l.slots.queueRelease(SlotKey{Monitor: c.MonitorId, Session: c.SessionId, Buffer: *surf.current})
		}
		surf.current = &buf
		surf.pending = nil
	}

	l.slots.ownership[key] = OwnerShift
	l.emit(BufferRequestAckEvent{SessionId: c.SessionId, MonitorId: c.MonitorId, Buffer: c.Buffer})
}

func (l *RenderingLayer) scheduleAcquireFence(key SlotKey, fd int) {
	if h, ok := l.slots.fenceTask[key]; ok {
		if l.scheduler.Reschedule(fence.Handle(h), []int{fd}, fence.All) {
			l.fenceDeadline[key] = time.Now().Add(l.cfg.AcquireFenceTimeout)
			return
		}
	}
	handle := l.scheduler.Schedule([]int{fd}, fence.All, func() {
		select {
		case l.fenceEvents <- fenceSignal{key: key}:
		default:
		}
	})
	l.slots.fenceTask[key] = uint64(handle)
	l.fenceDeadline[key] = time.Now().Add(l.cfg.AcquireFenceTimeout)
}

// handleFenceSignal promotes pending to current only if the pending
// buffer for this slot's (monitor,session) is still this exact buffer
// (it may have been superseded by a later SwapBuffers, or the session
// may have been removed entirely, in which case this is a no-op).
func (l *RenderingLayer) handleFenceSignal(key SlotKey) {
	delete(l.fenceDeadline, key)
	delete(l.slots.fenceTask, key)

	ms := monSession{Monitor: key.Monitor, Session: key.Session}
	surf, ok := l.slots.surfaces[ms]
	if !ok || surf.pending == nil || *surf.pending != key.Buffer {
		return // session removed, or superseded — silent per KindFenceWaitCancelled
	}

	if surf.current != nil && *surf.current != key.Buffer {
		l.slots.queueRelease(SlotKey{Monitor: key.Monitor, Session: key.Session, Buffer: *surf.current})
	}
	surf.current = &key.Buffer
	surf.pending = nil
}

// checkAcquireFenceTimeouts cancels any pending acquire fence that has
// outlived cfg.AcquireFenceTimeout, releases its slot back to the
// client, retroactively rejects the request with acquire_fence_timeout,
// and quarantines the slot: no further SwapBuffers is accepted for it
// until a fresh FramebufferLink re-imports it.
func (l *RenderingLayer) checkAcquireFenceTimeouts(now time.Time) {
	for key, deadline := range l.fenceDeadline {
		if now.Before(deadline) {
			continue
		}
		if h, ok := l.slots.fenceTask[key]; ok {
			l.scheduler.Cancel(fence.Handle(h))
			delete(l.slots.fenceTask, key)
		}
		delete(l.fenceDeadline, key)

		ms := monSession{Monitor: key.Monitor, Session: key.Session}
		if surf, ok := l.slots.surfaces[ms]; ok && surf.pending != nil && *surf.pending == key.Buffer {
			surf.pending = nil
		}
		if l.slots.hasSlot(key) {
			l.slots.ownership[key] = OwnerClient
			l.quarantined[key] = struct{}{}
		}
		l.emit(BufferRequestRejectedEvent{
			SessionId: key.Session, MonitorId: key.Monitor, Buffer: key.Buffer,
			Reason: ReasonAcquireFenceTimeout,
		})
	}
}

// handleDRMEvents drains and decodes whatever the device fd has queued;
// a hot-plug check piggybacks on any wakeup since several drivers signal
// both through the same fd.
func (l *RenderingLayer) handleDRMEvents() {
	evs, err := l.dev.ReadEvents()
	if err != nil {
		Logger().Warn("shift: drm read events failed", "err", err)
		return
	}
	if len(evs) == 0 {
		return
	}
	l.reconcileMonitors()
}

// reconcileMonitors diffs the freshly-polled connector set against
// knownMonitors, brings up newly-present outputs, and evicts every bit
// of per-monitor state for ones that vanished before emitting
// MonitorOffline, so no later event can reference them.
func (l *RenderingLayer) reconcileMonitors() {
	conns, err := l.dev.Connectors()
	if err != nil {
		Logger().Warn("shift: drm connectors poll failed", "err", err)
		return
	}

	var current []MonitorDescriptor
	byID := make(map[MonitorId]drm.Connector, len(conns))
	for _, c := range conns {
		if c.Status != drm.StatusConnected {
			continue
		}
		id := MonitorId(fmt.Sprintf("mon-%d", c.ID))
		byID[id] = c
		current = append(current, MonitorDescriptor{
			Id: id, Width: c.ModeWidth, Height: c.ModeHeight,
			RefreshRate: c.RefreshHz, Name: fmt.Sprintf("DRM-%d", c.ID),
		})
	}

	events := l.known.reconcile(current)
	for _, ev := range events {
		switch e := ev.(type) {
		case MonitorOfflineEvent:
			l.evictMonitor(e.MonitorId)
			l.emit(e)
		case MonitorOnlineEvent:
			if _, exists := l.monitors[e.Monitor.Id]; !exists {
				if res, err := l.bringUpMonitor(e.Monitor, byID[e.Monitor.Id].CrtcID); err == nil {
					l.monitors[e.Monitor.Id] = res
				} else {
					Logger().Warn("shift: hot-plug bring-up failed", "monitor", e.Monitor.Id, "err", err)
				}
			}
			l.emit(e)
		}
	}
}

func (l *RenderingLayer) evictMonitor(id MonitorId) {
	cancelled := l.slots.purgeMonitor(id)
	for _, h := range cancelled {
		l.scheduler.Cancel(fence.Handle(h))
	}
	for key := range l.fenceDeadline {
		if key.Monitor == id {
			delete(l.fenceDeadline, key)
		}
	}
	for key := range l.quarantined {
		if key.Monitor == id {
			delete(l.quarantined, key)
		}
	}
	delete(l.transitions, id)
	l.engine.ForgetMonitor(string(id))
	if res, ok := l.monitors[id]; ok {
		res.egl.Destroy()
		delete(l.monitors, id)
	}
}

// frameIteration runs one draw/commit cycle: for every renderable
// monitor, make current, draw whatever should be presented this cycle
// through the PresentationEngine, submit the atomic commit, and process
// deferred releases.
func (l *RenderingLayer) frameIteration() error {
	now := time.Now()
	l.checkAcquireFenceTimeouts(now)

	ids := make([]MonitorId, 0, len(l.monitors))
	for id := range l.monitors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var flipped []MonitorId
	var crtcs []uint32

	for _, id := range ids {
		mon := l.monitors[id]
		if err := mon.egl.MakeCurrent(); err != nil {
			Logger().Warn("shift: make current failed, skipping monitor this frame", "monitor", id, "err", err)
			continue
		}
		mon.rstate.EnsureSurfaceTarget(mon.desc.Width, mon.desc.Height, 0)

		snap := l.buildSnapshot(id, now)
		presented, err := l.engine.Present(mon.rstate, snap)
		if err != nil {
			Logger().Warn("shift: present failed", "monitor", id, "err", err)
			continue
		}
		mon.rstate.Flush()

		if len(presented) > 0 {
			flipped = append(flipped, id)
			crtcs = append(crtcs, mon.crtcID)
		}
		if snap.Transition == nil {
			if t, ok := l.transitions[id]; ok && time.Since(t.startedAt) >= transitionDuration {
				l.engine.Cursors().ClearTransitionTail(string(id), string(t.prevSession))
				delete(l.transitions, id)
			}
		}
	}

	if err := l.dev.AtomicCommit(crtcs); err != nil {
		return &RenderError{Kind: KindDrmFailure, Cause: err}
	}
	l.lastCommitted = len(flipped) > 0
	if len(flipped) > 0 {
		l.emit(PageFlipEvent{Monitors: flipped})
	}

	l.drainDeferredReleases()
	return nil
}

// buildSnapshot translates this monitor's slot-table state into the
// present.Snapshot the PresentationEngine needs: an optional
// active-session texture/id, an optional previous-session texture/id,
// and an optional in-flight transition.
func (l *RenderingLayer) buildSnapshot(id MonitorId, now time.Time) present.Snapshot {
	snap := present.Snapshot{MonitorID: string(id)}

	if l.activeSession != nil {
		if tex, ok := l.currentTexture(id, *l.activeSession); ok {
			snap.ActiveTexture = tex
			snap.ActiveSession = string(*l.activeSession)
		}
	}

	t, inFlight := l.transitions[id]
	if !inFlight {
		return snap
	}
	if tex, ok := l.currentTexture(id, t.prevSession); ok {
		snap.PrevTexture = tex
		snap.PrevSession = string(t.prevSession)
	}
	progress := clampProgress(now.Sub(t.startedAt).Seconds() / transitionDuration.Seconds())
	if progress >= 1.0 {
		return snap // transition's tail frame: active-only branch in Engine.Present
	}
	snap.Transition = &present.TransitionSnapshot{Kind: t.kind, Progress: progress, PreviousSession: string(t.prevSession)}
	return snap
}

func clampProgress(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func (l *RenderingLayer) currentTexture(monitor MonitorId, session SessionId) (*dmabuf.Texture, bool) {
	surf, ok := l.slots.surfaces[monSession{Monitor: monitor, Session: session}]
	if !ok || surf.current == nil {
		return nil, false
	}
	key := SlotKey{Monitor: monitor, Session: session, Buffer: *surf.current}
	if l.slots.ownership[key] != OwnerShift {
		return nil, false
	}
	tex, ok := l.slots.textures[key]
	return tex, ok
}

// drainDeferredReleases processes every superseded buffer queued this
// cycle: ownership is handed back to the client and a
// BufferConsumed event emitted, release_fence always a duplicate (or
// absent — AtomicCommit requests no DRM out-fence, so there is none to
// dup, see DESIGN.md) of the frame's render-completion fd.
func (l *RenderingLayer) drainDeferredReleases() {
	for _, key := range l.slots.drainReleases() {
		l.slots.ownership[key] = OwnerClient
		l.emit(BufferConsumedEvent{
			SessionId:    key.Session,
			MonitorId:    key.Monitor,
			Buffer:       key.Buffer,
			ReleaseFence: -1,
		})
	}
}

func closeFdsBestEffort(fds []int) {
	for _, fd := range fds {
		if fd >= 0 {
			closeFd(fd)
		}
	}
}
