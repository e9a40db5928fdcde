// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shift

// knownMonitors tracks the monitor set the rendering layer believes is
// connected, mutated only by reconcile.
type knownMonitors struct {
	byId map[MonitorId]MonitorDescriptor
}

func newKnownMonitors() *knownMonitors {
	return &knownMonitors{byId: make(map[MonitorId]MonitorDescriptor)}
}

// reconcile diffs the freshly-polled connector set against what was
// previously known, returning MonitorOnline/MonitorOffline events in a
// stable order (offline events are returned ahead of online events so
// callers can evict state before advertising a replacement under the
// same MonitorId, which a replug of the same connector reuses).
func (k *knownMonitors) reconcile(current []MonitorDescriptor) (events []Event) {
	seen := make(map[MonitorId]struct{}, len(current))
	for _, m := range current {
		seen[m.Id] = struct{}{}
		if prev, ok := k.byId[m.Id]; !ok || prev != m {
			k.byId[m.Id] = m
			if !ok {
				events = append(events, MonitorOnlineEvent{Monitor: m})
			}
		}
	}
	for id := range k.byId {
		if _, ok := seen[id]; !ok {
			delete(k.byId, id)
			events = append([]Event{MonitorOfflineEvent{MonitorId: id}}, events...)
		}
	}
	return events
}

func (k *knownMonitors) has(id MonitorId) bool {
	_, ok := k.byId[id]
	return ok
}

func (k *knownMonitors) get(id MonitorId) (MonitorDescriptor, bool) {
	m, ok := k.byId[id]
	return m, ok
}

func (k *knownMonitors) all() []MonitorDescriptor {
	out := make([]MonitorDescriptor, 0, len(k.byId))
	for _, m := range k.byId {
		out = append(out, m)
	}
	return out
}
