package loop

import (
	"time"

	"github.com/cbodonnell/cabinet/pkg/clock"
)

// SingleShot is a timer slot holding at most one pending callback.
// Arm replaces whatever was pending; callbacks run on the Executor.
// It must only be used from the Executor's goroutine.
type SingleShot struct {
	clock   clock.Clock
	exec    Executor
	pending *armed
}

type armed struct {
	timer clock.Timer
}

func NewSingleShot(c clock.Clock, exec Executor) *SingleShot {
	return &SingleShot{
		clock: c,
		exec:  exec,
	}
}

// Arm cancels any pending callback and schedules fn after d.
func (s *SingleShot) Arm(d time.Duration, fn func()) {
	s.Cancel()
	a := &armed{}
	a.timer = s.clock.AfterFunc(d, func() {
		s.exec.Post(func() {
			// a timer stopped after its callback was already queued
			if s.pending != a {
				return
			}
			s.pending = nil
			fn()
		})
	})
	s.pending = a
}

// Cancel drops the pending callback, if any.
func (s *SingleShot) Cancel() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending = nil
}

// Pending reports whether a callback is scheduled.
func (s *SingleShot) Pending() bool {
	return s.pending != nil
}
