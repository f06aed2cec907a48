package timer

import (
	"sync"
	"time"
)

// Virtual is a manually advanced Scheduler. Time only moves inside
// Advance and RunUntilIdle, and callbacks run on the caller's goroutine.
type Virtual struct {
	q queue

	mu  sync.Mutex
	now time.Duration
}

// NewVirtual creates a virtual scheduler at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the virtual time elapsed since creation.
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc schedules fn at Now()+delay.
func (v *Virtual) AfterFunc(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	return v.q.push(v.Now()+delay, fn)
}

// CancelAll drops every pending callback.
func (v *Virtual) CancelAll() int { return v.q.cancelAll() }

// Pending returns the number of callbacks still waiting.
func (v *Virtual) Pending() int { return v.q.len() }

// Advance moves time forward by d, running every callback that falls due
// on the way. Now() reads each callback's own deadline while it runs.
// Callbacks scheduled during Advance also run if they fall due before the
// target. It returns the number of callbacks run.
func (v *Virtual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := v.Now() + d
	fired := v.runUntil(target)

	v.mu.Lock()
	v.now = target
	v.mu.Unlock()
	return fired
}

// RunUntilIdle runs pending callbacks in order, jumping time to each
// deadline, until none remain.
func (v *Virtual) RunUntilIdle() int {
	fired := 0
	for {
		next, ok := v.q.next()
		if !ok {
			return fired
		}
		fired += v.runUntil(next)
	}
}

func (v *Virtual) runUntil(target time.Duration) int {
	fired := 0
	for {
		e := v.q.popDue(target)
		if e == nil {
			return fired
		}
		v.mu.Lock()
		if e.deadline > v.now {
			v.now = e.deadline
		}
		v.mu.Unlock()

		e.fn()
		fired++
	}
}
