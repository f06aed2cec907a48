package timer

import (
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{0, 0},
		{-1, 0},
		{math.NaN(), 0},
		{0.5, 500 * time.Millisecond},
		{2, 2 * time.Second},
		{math.Inf(1), time.Duration(math.MaxInt64)},
	}

	for _, tt := range tests {
		if got := Seconds(tt.in); got != tt.want {
			t.Errorf("Seconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVirtualFiresInDeadlineOrder(t *testing.T) {
	v := NewVirtual()
	var order []string

	v.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	v.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	v.AfterFunc(2*time.Second, func() { order = append(order, "b1") })
	v.AfterFunc(2*time.Second, func() { order = append(order, "b2") })

	if n := v.Advance(2 * time.Second); n != 3 {
		t.Errorf("Advance(2s) fired %d, want 3", n)
	}
	if v.Now() != 2*time.Second {
		t.Errorf("Now() = %v, want 2s", v.Now())
	}
	v.Advance(time.Second)

	want := []string{"a", "b1", "b2", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestVirtualNowDuringCallback(t *testing.T) {
	v := NewVirtual()
	var seen []time.Duration
	for _, d := range []time.Duration{500 * time.Millisecond, 2500 * time.Millisecond} {
		v.AfterFunc(d, func() { seen = append(seen, v.Now()) })
	}

	v.Advance(10 * time.Second)

	want := []time.Duration{500 * time.Millisecond, 2500 * time.Millisecond}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("Now() inside callbacks = %v, want %v", seen, want)
	}
}

func TestVirtualNestedSchedule(t *testing.T) {
	v := NewVirtual()
	fired := 0
	v.AfterFunc(time.Second, func() {
		fired++
		v.AfterFunc(time.Second, func() { fired++ })
		v.AfterFunc(5*time.Second, func() { fired++ })
	})

	v.Advance(3 * time.Second)
	if fired != 2 {
		t.Errorf("fired = %d, want 2", fired)
	}
	if v.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", v.Pending())
	}
	if n := v.RunUntilIdle(); n != 1 {
		t.Errorf("RunUntilIdle() = %d, want 1", n)
	}
	if v.Now() != 6*time.Second {
		t.Errorf("Now() = %v, want 6s", v.Now())
	}
}

func TestVirtualCancel(t *testing.T) {
	v := NewVirtual()
	fired := 0
	h := v.AfterFunc(time.Second, func() { fired++ })
	v.AfterFunc(2*time.Second, func() { fired++ })

	if !h.Cancel() {
		t.Error("Cancel() on pending callback = false")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true")
	}

	v.Advance(5 * time.Second)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestVirtualCancelAll(t *testing.T) {
	v := NewVirtual()
	fired := 0
	hs := []Handle{
		v.AfterFunc(time.Second, func() { fired++ }),
		v.AfterFunc(time.Second, func() { fired++ }),
	}

	if n := v.CancelAll(); n != 2 {
		t.Errorf("CancelAll() = %d, want 2", n)
	}
	v.Advance(time.Minute)
	if fired != 0 {
		t.Errorf("fired = %d after CancelAll", fired)
	}
	for _, h := range hs {
		if h.Cancel() {
			t.Error("Cancel() after CancelAll should report false")
		}
	}
}

func TestVirtualNegativeDelay(t *testing.T) {
	v := NewVirtual()
	fired := false
	v.AfterFunc(-time.Second, func() { fired = true })
	v.Advance(0)
	if !fired {
		t.Error("negative delay should fire at the current time")
	}
}

func TestRealtimeFiresSequentially(t *testing.T) {
	r := NewRealtime()
	r.Start()
	defer r.Stop()

	var active, overlaps atomic.Int32
	done := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		r.AfterFunc(time.Duration(i)*5*time.Millisecond, func() {
			if active.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			done <- i
		})
	}

	var got []int
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case i := <-done:
			got = append(got, i)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}

	if !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("order = %v, want [0 1 2]", got)
	}
	if overlaps.Load() != 0 {
		t.Error("callbacks overlapped")
	}
}

func TestRealtimeRespectsDelay(t *testing.T) {
	r := NewRealtime()
	r.Start()
	defer r.Stop()

	start := time.Now()
	done := make(chan time.Duration, 1)
	r.AfterFunc(20*time.Millisecond, func() { done <- time.Since(start) })

	select {
	case elapsed := <-done:
		if elapsed < 20*time.Millisecond {
			t.Errorf("fired after %v, want at least 20ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestRealtimeStopCancelsPending(t *testing.T) {
	r := NewRealtime()
	r.Start()

	var fired atomic.Bool
	r.AfterFunc(time.Hour, func() { fired.Store(true) })
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}

	r.Stop()
	r.Stop()

	if r.Pending() != 0 {
		t.Errorf("Pending() after Stop = %d", r.Pending())
	}
	if fired.Load() {
		t.Error("cancelled callback fired")
	}
}
