package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Realtime fires callbacks against the wall clock on a single loop
// goroutine. Callbacks never overlap.
type Realtime struct {
	q     queue
	start time.Time

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewRealtime creates a realtime scheduler whose clock starts now. Call
// Start to begin firing callbacks.
func NewRealtime() *Realtime {
	return &Realtime{
		start:    time.Now(),
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Start launches the loop goroutine. It is a no-op after the first call.
func (r *Realtime) Start() {
	if r.running.CompareAndSwap(false, true) {
		r.wg.Add(1)
		go r.loop()
	}
}

// Stop cancels pending callbacks, halts the loop and waits for a running
// callback to return. Stop must not be called from inside a callback.
func (r *Realtime) Stop() {
	r.stopOnce.Do(func() {
		r.q.cancelAll()
		close(r.stopChan)
		r.wg.Wait()
		r.running.Store(false)
	})
}

// Now returns the time elapsed since the scheduler was created.
func (r *Realtime) Now() time.Duration { return time.Since(r.start) }

// AfterFunc schedules fn at Now()+delay.
func (r *Realtime) AfterFunc(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	e := r.q.push(r.Now()+delay, fn)
	r.notify()
	return e
}

// CancelAll drops every pending callback.
func (r *Realtime) CancelAll() int {
	n := r.q.cancelAll()
	r.notify()
	return n
}

// Pending returns the number of callbacks still waiting.
func (r *Realtime) Pending() int { return r.q.len() }

func (r *Realtime) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// loop sleeps until the earliest deadline, runs every due callback and
// goes back to sleep. New or cancelled entries wake it early.
func (r *Realtime) loop() {
	defer r.wg.Done()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		default:
		}

		for e := r.q.popDue(r.Now()); e != nil; e = r.q.popDue(r.Now()) {
			e.fn()
			select {
			case <-r.stopChan:
				return
			default:
			}
		}

		var fire <-chan time.Time
		if next, ok := r.q.next(); ok {
			sleep := next - r.Now()
			if sleep < 0 {
				sleep = 0
			}
			timer.Reset(sleep)
			fire = timer.C
		}

		select {
		case <-r.stopChan:
			return
		case <-fire:
		case <-r.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}
