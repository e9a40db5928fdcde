// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shift

import "testing"

func desc(id MonitorId) MonitorDescriptor {
	return MonitorDescriptor{Id: id, Width: 1920, Height: 1080, RefreshRate: 60, Name: string(id)}
}

func TestReconcileEmitsOnlineForNewMonitors(t *testing.T) {
	k := newKnownMonitors()

	events := k.reconcile([]MonitorDescriptor{desc("m1"), desc("m2")})
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if _, ok := ev.(MonitorOnlineEvent); !ok {
			t.Fatalf("want MonitorOnline, got %#v", ev)
		}
	}
	if !k.has("m1") || !k.has("m2") {
		t.Fatal("want both monitors known after reconcile")
	}
}

func TestReconcileEmitsOfflineBeforeOnline(t *testing.T) {
	k := newKnownMonitors()
	k.reconcile([]MonitorDescriptor{desc("m1"), desc("m2")})

	// m2 vanishes, m3 appears in the same poll.
	events := k.reconcile([]MonitorDescriptor{desc("m1"), desc("m3")})
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	off, ok := events[0].(MonitorOfflineEvent)
	if !ok || off.MonitorId != "m2" {
		t.Fatalf("want MonitorOffline(m2) first, got %#v", events[0])
	}
	on, ok := events[1].(MonitorOnlineEvent)
	if !ok || on.Monitor.Id != "m3" {
		t.Fatalf("want MonitorOnline(m3) second, got %#v", events[1])
	}
	if k.has("m2") {
		t.Fatal("m2 should be forgotten")
	}
}

func TestReconcileIsQuiescentWhenNothingChanged(t *testing.T) {
	k := newKnownMonitors()
	set := []MonitorDescriptor{desc("m1")}
	k.reconcile(set)
	if events := k.reconcile(set); len(events) != 0 {
		t.Fatalf("want no events on unchanged set, got %d", len(events))
	}
}

func TestReconcileUpdatesChangedDescriptorSilently(t *testing.T) {
	k := newKnownMonitors()
	k.reconcile([]MonitorDescriptor{desc("m1")})

	changed := desc("m1")
	changed.RefreshRate = 144
	if events := k.reconcile([]MonitorDescriptor{changed}); len(events) != 0 {
		t.Fatalf("mode change on a still-present connector is not hot-plug, got %d events", len(events))
	}
	got, _ := k.get("m1")
	if got.RefreshRate != 144 {
		t.Fatalf("want refreshed descriptor recorded, got %d Hz", got.RefreshRate)
	}
}
