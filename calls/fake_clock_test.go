package calls

import (
	"sync"
	"sync/atomic"
	"time"
)

// fakeClock fires tickers and timers on demand. Tick and Fire block until
// the engine loop has received the value, so a Snapshot issued afterwards
// observes its effect.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeTimer struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }
func (t *fakeTimer) Stop() bool          { return !t.stopped.Swap(true) }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) NewTicker(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) NewTimer(time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{c: make(chan time.Time)}
	f.timers = append(f.timers, t)
	return t
}

// Tick advances one second and returns how many live tickers received it.
func (f *fakeClock) Tick() int {
	f.mu.Lock()
	f.now = f.now.Add(time.Second)
	now := f.now
	tickers := append([]*fakeTicker(nil), f.tickers...)
	f.mu.Unlock()

	delivered := 0
	for _, t := range tickers {
		if t.stopped.Load() {
			continue
		}
		select {
		case t.c <- now:
			delivered++
		case <-time.After(time.Second):
		}
	}
	return delivered
}

// Fire expires every live timer and returns how many were received.
func (f *fakeClock) Fire() int {
	f.mu.Lock()
	timers := append([]*fakeTimer(nil), f.timers...)
	now := f.now
	f.mu.Unlock()

	delivered := 0
	for _, t := range timers {
		if t.stopped.Swap(true) {
			continue
		}
		select {
		case t.c <- now:
			delivered++
		case <-time.After(time.Second):
		}
	}
	return delivered
}

func (f *fakeClock) liveTickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := 0
	for _, t := range f.tickers {
		if !t.stopped.Load() {
			live++
		}
	}
	return live
}

func (f *fakeClock) liveTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := 0
	for _, t := range f.timers {
		if !t.stopped.Load() {
			live++
		}
	}
	return live
}
