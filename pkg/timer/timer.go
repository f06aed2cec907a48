// Package timer provides deferred one-shot callbacks for stamping runs.
//
// Both implementations run callbacks strictly one at a time, in deadline
// order, with ties broken by scheduling order. Code driven by a Scheduler
// may therefore share mutable state between callbacks without locking.
//
//   - Virtual advances only when told to. It drives plans, tests and frame
//     loops that already own a clock.
//   - Realtime owns a goroutine and fires callbacks against the wall clock.
package timer

import (
	"container/heap"
	"math"
	"sync"
	"time"
)

// Scheduler defers one-shot callbacks.
type Scheduler interface {
	// AfterFunc runs fn once, no earlier than delay after this call.
	// Negative delays are treated as zero.
	AfterFunc(delay time.Duration, fn func()) Handle

	// CancelAll drops every pending callback and returns how many were
	// dropped.
	CancelAll() int
}

// Handle identifies one scheduled callback.
type Handle interface {
	// Cancel prevents the callback from running. It reports whether the
	// callback was still pending.
	Cancel() bool
}

// Seconds converts fractional seconds to a Duration, clamping NaN and
// negative values to zero and overflow to the largest Duration.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	ns := s * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// entry is one pending callback.
type entry struct {
	q        *queue
	deadline time.Duration
	seq      uint64
	fn       func()
	index    int // heap index, -1 once popped or cancelled
}

// Cancel implements Handle.
func (e *entry) Cancel() bool { return e.q.cancel(e) }

// queue is a mutex-guarded min-heap of entries keyed by (deadline, seq).
type queue struct {
	mu  sync.Mutex
	seq uint64
	h   entryHeap
}

func (q *queue) push(deadline time.Duration, fn func()) *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	e := &entry{q: q, deadline: deadline, seq: q.seq, fn: fn}
	heap.Push(&q.h, e)
	return e
}

func (q *queue) cancel(e *entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e.index < 0 {
		return false
	}
	heap.Remove(&q.h, e.index)
	return true
}

func (q *queue) cancelAll() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.h)
	for _, e := range q.h {
		e.index = -1
	}
	q.h = nil
	return n
}

// popDue removes and returns the earliest entry whose deadline is at or
// before now, or nil.
func (q *queue) popDue(now time.Duration) *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 || q.h[0].deadline > now {
		return nil
	}
	return heap.Pop(&q.h).(*entry)
}

// next returns the earliest pending deadline.
func (q *queue) next() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].deadline, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
