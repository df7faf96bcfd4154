package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noelzubin/papers_search/transport"
)

type fakeTimer struct {
	clock   *fakeClock
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only fires timers when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// Fire runs every pending timer in the calling goroutine.
func (c *fakeClock) Fire() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Timer returns the i-th timer ever scheduled.
func (c *fakeClock) Timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

var errBroken = errors.New("broken")

// fakeFetcher serves bodies from a map. Paths listed in gates block until the
// gate is closed or the context is cancelled.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	fail    map[string]bool
	gates   map[string]chan struct{}
	started chan string
	calls   map[string]int

	inFlight    int
	maxInFlight int
	hold        time.Duration
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{
		bodies:  bodies,
		fail:    map[string]bool{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 64),
		calls:   map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	f.calls[path]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	gate := f.gates[path]
	fail := f.fail[path]
	body := f.bodies[path]
	hold := f.hold
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	select {
	case f.started <- path:
	default:
	}

	if hold > 0 {
		time.Sleep(hold)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", &transport.FetchError{Path: path, Err: ctx.Err()}
		}
	}
	if fail {
		return "", &transport.FetchError{Path: path, Err: errBroken}
	}
	return body, nil
}

func (f *fakeFetcher) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeFetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFetcher) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}
