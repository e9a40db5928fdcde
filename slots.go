// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shift

import "github.com/gogpu/shift/hal/dmabuf"

// monSession keys the per-(monitor, session) tables that are not part of
// SlotKey itself (surface state applies to the pairing, not to an
// individual buffer).
type monSession struct {
	Monitor MonitorId
	Session SessionId
}

// surfaceState tracks which of a session's two buffers is currently
// scanned out on a monitor, and which (if any) is waiting on an acquire
// fence before it can be promoted.
type surfaceState struct {
	current *BufferSlot
	pending *BufferSlot
}

// slotTable is the RenderingLayer's core resource map: imported
// textures, their ownership, per-(monitor,session) surface state,
// deferred releases, and live fence task handles. It is never touched
// from any thread other than the GL-confined rendering loop.
type slotTable struct {
	textures  map[SlotKey]*dmabuf.Texture
	ownership map[SlotKey]Owner
	surfaces  map[monSession]*surfaceState
	deferred  map[SlotKey]struct{} // set semantics: queued at most once per flip cycle
	fenceTask map[SlotKey]uint64   // fence.Scheduler task handles
}

func newSlotTable() *slotTable {
	return &slotTable{
		textures:  make(map[SlotKey]*dmabuf.Texture),
		ownership: make(map[SlotKey]Owner),
		surfaces:  make(map[monSession]*surfaceState),
		deferred:  make(map[SlotKey]struct{}),
		fenceTask: make(map[SlotKey]uint64),
	}
}

func (t *slotTable) install(key SlotKey, tex *dmabuf.Texture) {
	t.textures[key] = tex
	t.ownership[key] = OwnerClient
}

func (t *slotTable) hasSlot(key SlotKey) bool {
	_, ok := t.textures[key]
	return ok
}

func (t *slotTable) surfaceFor(ms monSession) *surfaceState {
	s, ok := t.surfaces[ms]
	if !ok {
		s = &surfaceState{}
		t.surfaces[ms] = s
	}
	return s
}

// queueRelease adds key to the deferred-release set; set semantics mean
// a key already queued this flip cycle is not added twice.
func (t *slotTable) queueRelease(key SlotKey) {
	t.deferred[key] = struct{}{}
}

// drainReleases returns and clears the current deferred-release set.
// Each returned key is released exactly once.
func (t *slotTable) drainReleases() []SlotKey {
	if len(t.deferred) == 0 {
		return nil
	}
	out := make([]SlotKey, 0, len(t.deferred))
	for k := range t.deferred {
		out = append(out, k)
	}
	t.deferred = make(map[SlotKey]struct{})
	return out
}

// purgeSession removes every entry keyed by session, across every
// monitor, and releases the held textures. Returns the fence task
// handles that must be cancelled by the caller (fence cancellation is
// not performed here to keep this package free of a fence.Scheduler
// dependency).
func (t *slotTable) purgeSession(session SessionId) (cancelledTasks []uint64) {
	for key, tex := range t.textures {
		if key.Session != session {
			continue
		}
		tex.Release()
		delete(t.textures, key)
		delete(t.ownership, key)
		delete(t.deferred, key)
		if h, ok := t.fenceTask[key]; ok {
			cancelledTasks = append(cancelledTasks, h)
			delete(t.fenceTask, key)
		}
	}
	for ms := range t.surfaces {
		if ms.Session == session {
			delete(t.surfaces, ms)
		}
	}
	return cancelledTasks
}

// purgeMonitor is purgeSession's counterpart for a monitor that has gone
// offline: every slot, surface, deferred release, and fence task keyed
// by that monitor is evicted.
func (t *slotTable) purgeMonitor(monitor MonitorId) (cancelledTasks []uint64) {
	for key, tex := range t.textures {
		if key.Monitor != monitor {
			continue
		}
		tex.Release()
		delete(t.textures, key)
		delete(t.ownership, key)
		delete(t.deferred, key)
		if h, ok := t.fenceTask[key]; ok {
			cancelledTasks = append(cancelledTasks, h)
			delete(t.fenceTask, key)
		}
	}
	for ms := range t.surfaces {
		if ms.Monitor == monitor {
			delete(t.surfaces, ms)
		}
	}
	return cancelledTasks
}
