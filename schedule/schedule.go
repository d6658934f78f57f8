// Package schedule provides the cancellable timers behind journey
// auto-advance and scan-hold release.
//
// Callbacks never run on the timer goroutine. The real scheduler hands them
// to a dispatch function, normally the runtime loop's queue, so a callback
// runs on the same goroutine as every other state change. A timer stopped on
// that goroutine never fires afterwards, even if its deadline already passed
// and the callback is sitting in the queue.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped it,
	// false if it had already run or been stopped.
	Stop() bool
}

// Scheduler creates timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// Real schedules on the wall clock and delivers callbacks through dispatch.
type Real struct {
	dispatch func(func())
}

// NewReal returns a wall-clock scheduler. A nil dispatch runs callbacks on
// the timer goroutine, which is only appropriate when nothing else mutates
// the same state.
func NewReal(dispatch func(func())) *Real {
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &Real{dispatch: dispatch}
}

// Now returns time.Now.
func (r *Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f after d.
func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	t := &realTimer{}
	t.timer = time.AfterFunc(d, func() {
		r.dispatch(func() {
			if t.done.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

type realTimer struct {
	timer *time.Timer
	done  atomic.Bool
}

func (t *realTimer) Stop() bool {
	t.timer.Stop()
	return t.done.CompareAndSwap(false, true)
}

// Manual is a deterministic clock for tests. Time only moves in Advance,
// and due callbacks run synchronously inside it, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

type manualTimer struct {
	m    *Manual
	at   time.Time
	seq  int
	f    func()
	done bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Pending counts timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers scheduled by callbacks during the advance.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.done = true
		m.now = next.at
		m.mu.Unlock()

		next.f()
	}
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	var best *manualTimer
	live := m.timers[:0]
	for _, t := range m.timers {
		if t.done {
			continue
		}
		live = append(live, t)
		if t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	m.timers = live
	return best
}

// Debouncer runs a function once calls stop arriving for a quiet period.
// Each Debounce call restarts the wait.
type Debouncer struct {
	sched    Scheduler
	duration time.Duration

	mu    sync.Mutex
	timer Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(sched Scheduler, duration time.Duration) *Debouncer {
	return &Debouncer{sched: sched, duration: duration}
}

// Debounce schedules fn after the quiet period, replacing any pending call.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(d.duration, fn)
}

// Cancel cancels any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
