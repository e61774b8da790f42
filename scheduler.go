// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synconn

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Scheduler is a cooperative FIFO queue of completions.
//
// Asynchronous stream operations do their work at call time and post only the
// notification here; nothing runs until the owner drives the scheduler with
// RunOne, Turn, Run or RunUntil. Completions run in the order they were posted.
//
// A Scheduler is not safe for concurrent use: one goroutine posts and drives it.
type Scheduler struct {
	queue   []func()
	head    int
	stopped bool

	dispatched uint64

	log *logrus.Entry
}

// NewScheduler returns an empty, running scheduler. Only Options.Logger is consulted.
func NewScheduler(opts ...Option) *Scheduler {
	o := resolveOptions(opts)
	return &Scheduler{log: o.Logger.WithField("component", "scheduler")}
}

// Post appends fn to the queue. A nil fn is ignored.
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}
	s.queue = append(s.queue, fn)
}

// Pending returns the number of queued completions.
func (s *Scheduler) Pending() int {
	return len(s.queue) - s.head
}

// Dispatched returns the number of completions run so far.
func (s *Scheduler) Dispatched() uint64 {
	return s.dispatched
}

// RunOne runs the oldest queued completion. It reports false when the queue is
// empty or the scheduler is stopped.
func (s *Scheduler) RunOne() bool {
	if s.stopped {
		return false
	}
	fn, ok := s.pop()
	if !ok {
		return false
	}
	s.dispatched++
	if s.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		s.log.WithField("seq", s.dispatched).Trace("dispatch")
	}
	fn()
	return true
}

// Turn runs the completions that were queued when Turn was called. Completions
// they post are left for the next turn. It returns the number run.
func (s *Scheduler) Turn() int {
	n := 0
	for budget := s.Pending(); n < budget; n++ {
		if !s.RunOne() {
			break
		}
	}
	return n
}

// Run runs completions until the queue is empty, the scheduler is stopped or
// ctx is done. It returns the number run and ctx.Err() when ctx ended the run.
func (s *Scheduler) Run(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if !s.RunOne() {
			return n, nil
		}
		n++
	}
}

// RunUntil runs completions until ready reports true. It returns ErrIdle when
// the queue drains first and ErrStopped when the scheduler is stopped.
func (s *Scheduler) RunUntil(ready func() bool) (int, error) {
	n := 0
	for !ready() {
		if s.stopped {
			return n, ErrStopped
		}
		if !s.RunOne() {
			return n, ErrIdle
		}
		n++
	}
	return n, nil
}

// Stop makes the run methods return without running further completions.
// Queued completions are kept.
func (s *Scheduler) Stop() {
	s.stopped = true
}

func (s *Scheduler) Stopped() bool {
	return s.stopped
}

// Restart clears a previous Stop.
func (s *Scheduler) Restart() {
	s.stopped = false
}

// pop removes the head before it runs so a panicking completion leaves the
// queue consistent.
func (s *Scheduler) pop() (func(), bool) {
	if s.head == len(s.queue) {
		return nil, false
	}
	fn := s.queue[s.head]
	s.queue[s.head] = nil
	s.head++
	switch {
	case s.head == len(s.queue):
		s.queue = s.queue[:0]
		s.head = 0
	case s.head >= compactThreshold && s.head*2 >= len(s.queue):
		s.compact()
	}
	return fn, true
}

// compactThreshold keeps short queues from being shifted on every pop.
const compactThreshold = 32

// compact moves the live completions to the front so the dead prefix is not
// carried along when append grows the queue. Queue memory then tracks the
// number pending, not the number ever posted.
func (s *Scheduler) compact() {
	n := copy(s.queue, s.queue[s.head:])
	clear(s.queue[n:])
	s.queue = s.queue[:n]
	s.head = 0
}
