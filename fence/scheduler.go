// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package fence watches collections of kernel sync-file descriptors and
// dispatches a completion callback when they signal, or are cancelled.
// It is meant to run on its own dedicated OS thread via RunLoop, kept
// entirely separate from the GL-context-confined rendering thread: it
// performs no GL calls, ever.
package fence

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// Mode selects how a task's fd set must signal before its callback
// fires.
type Mode int

const (
	// All requires every fd in the set to become readable.
	All Mode = iota
	// Any requires at least one fd in the set to become readable.
	Any
)

// Handle identifies a scheduled task. Zero is never issued by Schedule.
type Handle uint64

type task struct {
	id        Handle
	fds       []int
	mode      Mode
	callback  func()
	ready     map[int]bool
	cancelled bool
	done      bool
}

func (t *task) satisfied() bool {
	if t.mode == Any {
		for _, fd := range t.fds {
			if t.ready[fd] {
				return true
			}
		}
		return false
	}
	for _, fd := range t.fds {
		if !t.ready[fd] {
			return false
		}
	}
	return len(t.fds) > 0
}

func (t *task) closeFds() {
	for _, fd := range t.fds {
		_ = unix.Close(fd)
	}
}

type reqKind int

const (
	reqSchedule reqKind = iota
	reqReschedule
	reqCancel
)

type request struct {
	kind    reqKind
	fds     []int
	mode    Mode
	cb      func()
	handle  Handle
	replyCh chan any
}

// Scheduler dispatches completion callbacks for groups of sync-file fds.
// All exported methods are safe to call from any goroutine; the actual
// poll(2) loop and callback invocation happen only inside RecvAndRun, on
// whichever goroutine the caller dedicates to it.
type Scheduler struct {
	reqCh chan request

	wakeR, wakeW int // self-pipe: wakes a blocked poll(2) when new work arrives

	mu     sync.Mutex // guards nextID only; everything else is single-threaded inside RecvAndRun
	nextID uint64

	tasks  map[Handle]*task
	closed bool
}

// New constructs a Scheduler. Callers must drive it by running RunLoop
// (or repeated RecvAndRun calls) on a dedicated goroutine/OS thread.
func New() (*Scheduler, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &Scheduler{
		reqCh: make(chan request, 64),
		wakeR: fds[0],
		wakeW: fds[1],
		tasks: make(map[Handle]*task),
	}, nil
}

func (s *Scheduler) wake() {
	var b [1]byte
	_, _ = unix.Write(s.wakeW, b[:])
}

// Schedule takes ownership of fds and registers callback to fire once
// mode is satisfied, or when the task is cancelled (in which case the
// callback does not fire at all).
func (s *Scheduler) Schedule(fds []int, mode Mode, callback func()) Handle {
	s.mu.Lock()
	s.nextID++
	h := Handle(s.nextID)
	s.mu.Unlock()

	reply := make(chan any, 1)
	s.reqCh <- request{kind: reqSchedule, fds: fds, mode: mode, cb: callback, handle: h, replyCh: reply}
	s.wake()
	<-reply
	return h
}

// Reschedule replaces the fd set (and mode) for an existing, still-live
// task. Returns false if the task already completed or was cancelled,
// in which case fds are closed by the caller's responsibility (not
// consumed).
func (s *Scheduler) Reschedule(h Handle, fds []int, mode Mode) bool {
	reply := make(chan any, 1)
	s.reqCh <- request{kind: reqReschedule, fds: fds, mode: mode, handle: h, replyCh: reply}
	s.wake()
	return (<-reply).(bool)
}

// Cancel best-effort cancels a task: if its callback has not yet fired
// it is suppressed, and its fds are closed. Idempotent.
func (s *Scheduler) Cancel(h Handle) {
	s.reqCh <- request{kind: reqCancel, handle: h}
	s.wake()
}

// Close stops accepting new requests. RecvAndRun continues draining
// in-flight tasks' poll state but returns false once the request
// channel is closed and drained.
func (s *Scheduler) Close() {
	close(s.reqCh)
}

// RecvAndRun advances the scheduler by one pump: it drains pending
// requests, polls every live task's fds (plus the wake pipe), and fires
// callbacks for any task whose mode is now satisfied. Returns false once
// the request channel has been closed and fully drained and no task is
// still live — the caller should stop calling it.
func (s *Scheduler) RecvAndRun() bool {
	s.drainRequests()
	if s.closed && len(s.tasks) == 0 {
		return false
	}

	pollFds := make([]unix.PollFd, 0, len(s.tasks)*2+1)
	pollFds = append(pollFds, unix.PollFd{Fd: int32(s.wakeR), Events: unix.POLLIN})
	fdOwner := make(map[int][]Handle)
	for h, t := range s.tasks {
		for _, fd := range t.fds {
			pollFds = append(pollFds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
			fdOwner[fd] = append(fdOwner[fd], h)
		}
	}

	n, err := unix.Poll(pollFds, 250)
	for err == unix.EINTR {
		n, err = unix.Poll(pollFds, 250)
	}
	if err != nil || n == 0 {
		return true
	}

	for _, pfd := range pollFds {
		if pfd.Revents == 0 {
			continue
		}
		if int(pfd.Fd) == s.wakeR {
			drainWake(s.wakeR)
			continue
		}
		for _, h := range fdOwner[int(pfd.Fd)] {
			if t, ok := s.tasks[h]; ok {
				t.ready[int(pfd.Fd)] = true
			}
		}
	}

	for h, t := range s.tasks {
		if t.satisfied() {
			delete(s.tasks, h)
			t.closeFds()
			if !t.cancelled && t.callback != nil {
				t.callback()
			}
		}
	}

	return true
}

// RunLoop repeatedly calls RecvAndRun until it returns false. Intended
// to be the entire body of the scheduler's dedicated goroutine; it locks
// that goroutine to its own OS thread for the life of the loop.
func (s *Scheduler) RunLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for s.RecvAndRun() {
	}
}

func (s *Scheduler) drainRequests() {
	for {
		select {
		case req, ok := <-s.reqCh:
			if !ok {
				s.closed = true
				return
			}
			s.handleRequest(req)
		default:
			return
		}
	}
}

func (s *Scheduler) handleRequest(req request) {
	switch req.kind {
	case reqSchedule:
		s.tasks[req.handle] = &task{
			id:       req.handle,
			fds:      req.fds,
			mode:     req.mode,
			callback: req.cb,
			ready:    make(map[int]bool, len(req.fds)),
		}
		req.replyCh <- req.handle
	case reqReschedule:
		t, ok := s.tasks[req.handle]
		if !ok || t.cancelled || t.done {
			req.replyCh <- false
			return
		}
		// The scheduler owns the fds it is replacing; a task does not
		// double-fire for its previous fd set, and those fds are gone
		// for good once superseded, so close them here rather than
		// leaking them on the caller.
		t.closeFds()
		t.fds = req.fds
		t.mode = req.mode
		t.ready = make(map[int]bool, len(req.fds))
		req.replyCh <- true
	case reqCancel:
		t, ok := s.tasks[req.handle]
		if !ok {
			return
		}
		t.cancelled = true
		delete(s.tasks, req.handle)
		t.closeFds()
	}
}

func drainWake(fd int) {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}
