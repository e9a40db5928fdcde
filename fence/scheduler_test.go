// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fence

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func pipePair(t *testing.T) (r, w int) {
	t.Helper()
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	return fds[0], fds[1]
}

func newRunning(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go s.RunLoop()
	t.Cleanup(s.Close)
	return s
}

func TestScheduleAnyFiresOnFirstSignal(t *testing.T) {
	s := newRunning(t)

	r1, w1 := pipePair(t)
	r2, _ := pipePair(t)

	fired := make(chan struct{}, 1)
	s.Schedule([]int{r1, r2}, Any, func() { fired <- struct{}{} })

	if _, err := unix.Write(w1, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire within timeout")
	}
}

func TestScheduleAllRequiresEverySignal(t *testing.T) {
	s := newRunning(t)

	r1, w1 := pipePair(t)
	r2, w2 := pipePair(t)

	fired := make(chan struct{}, 1)
	s.Schedule([]int{r1, r2}, All, func() { fired <- struct{}{} })

	if _, err := unix.Write(w1, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("callback fired before all fds signalled")
	case <-time.After(300 * time.Millisecond):
	}

	if _, err := unix.Write(w2, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire after both fds signalled")
	}
}

func TestCancelSuppressesCallback(t *testing.T) {
	s := newRunning(t)

	r1, w1 := pipePair(t)

	fired := make(chan struct{}, 1)
	h := s.Schedule([]int{r1}, Any, func() { fired <- struct{}{} })
	s.Cancel(h)

	if _, err := unix.Write(w1, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("callback fired after cancellation")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := newRunning(t)
	r1, _ := pipePair(t)
	h := s.Schedule([]int{r1}, Any, func() {})
	s.Cancel(h)
	s.Cancel(h) // must not panic or block
}

func TestRescheduleReplacesFdSet(t *testing.T) {
	s := newRunning(t)

	r1, w1 := pipePair(t)
	r2, w2 := pipePair(t)

	fired := make(chan int, 2)
	h := s.Schedule([]int{r1}, Any, func() { fired <- 1 })
	if ok := s.Reschedule(h, []int{r2}, Any); !ok {
		t.Fatal("reschedule should succeed on a still-live task")
	}

	// The scheduler owns r1 and closes it once superseded; w1's write may
	// now fail with EPIPE (confirming r1 was actually closed, not merely
	// unwatched) or, on some kernels, land before the close is visible.
	// Either way the rescheduled task must not fire for it.
	_, _ = unix.Write(w1, []byte("x"))
	select {
	case <-fired:
		t.Fatal("old fd set must not fire the rescheduled task")
	case <-time.After(300 * time.Millisecond):
	}

	if _, err := unix.Write(w2, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("new fd set should fire the rescheduled task")
	}
}

func TestRescheduleAfterCompletionFails(t *testing.T) {
	s := newRunning(t)

	r1, w1 := pipePair(t)
	done := make(chan struct{})
	h := s.Schedule([]int{r1}, Any, func() { close(done) })

	if _, err := unix.Write(w1, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	<-done

	r2, _ := pipePair(t)
	if ok := s.Reschedule(h, []int{r2}, Any); ok {
		t.Fatal("reschedule should fail once the task already completed")
	}
}
