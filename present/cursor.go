// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package present

// CursorKey identifies one hardware cursor slot: a (monitor, session)
// pairing, mirroring the root package's monSession key without
// depending on it directly (present must not import the root shift
// package to avoid a cycle; callers translate their own key type to
// this one at the call boundary).
type CursorKey struct {
	Monitor string
	Session string
}

// cursorState is what CursorTracker remembers per key: the last
// uploaded cursor image (identified by a caller-supplied hash, so this
// package never hashes pixels itself) and hotspot-relative position.
// A redundant upload — same hash, same position — is skipped by the
// caller before it ever reaches DrawTexture-equivalent cursor plane
// calls.
type cursorState struct {
	imageHash    uint64
	lastX, lastY int32
}

// CursorTracker implements the recommended default from the open
// question on cursor integration: hardware cursor state
// is preserved across an in-flight transition and cleared only once the
// transition reaches progress >= 1.0, or immediately on session
// removal.
type CursorTracker struct {
	states map[CursorKey]cursorState
}

// NewCursorTracker constructs an empty tracker.
func NewCursorTracker() *CursorTracker {
	return &CursorTracker{states: make(map[CursorKey]cursorState)}
}

// ShouldUpload reports whether a cursor image/position differs from the
// last known state for key, recording the new state as a side effect
// when it does. Callers skip the (comparatively expensive) hardware
// cursor buffer upload when this returns false.
func (t *CursorTracker) ShouldUpload(key CursorKey, imageHash uint64, x, y int32) bool {
	cur, ok := t.states[key]
	if ok && cur.imageHash == imageHash && cur.lastX == x && cur.lastY == y {
		return false
	}
	t.states[key] = cursorState{imageHash: imageHash, lastX: x, lastY: y}
	return true
}

// ClearSession discards every cursor state for session, called on
// SessionRemoved.
func (t *CursorTracker) ClearSession(session string) {
	for k := range t.states {
		if k.Session == session {
			delete(t.states, k)
		}
	}
}

// ClearMonitor discards every cursor state for monitor, called when a
// connector goes offline.
func (t *CursorTracker) ClearMonitor(monitor string) {
	for k := range t.states {
		if k.Monitor == monitor {
			delete(t.states, k)
		}
	}
}

// ClearTransitionTail discards the outgoing session's cursor state for
// monitor once a transition completes (progress reaches 1.0); the
// incoming session's state is left untouched since it is now the sole
// presented session on that monitor.
func (t *CursorTracker) ClearTransitionTail(monitor, outgoingSession string) {
	delete(t.states, CursorKey{Monitor: monitor, Session: outgoingSession})
}
