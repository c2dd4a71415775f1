package fade

import (
	"sync"
	"time"
)

// fakeHost is a scripted viewport. Scrolling moves every rect up by the
// scroll delta, the way the browser reports client rects.
type fakeHost struct {
	scrollY  float64
	viewport float64
	region   *Rect
	sections map[string]Rect

	observing  func(bool)
	observeCfg [2]any
	scrollFn   func()
	listens    int
	frames     []func()
}

func newFakeHost(viewport float64, region Rect) *fakeHost {
	return &fakeHost{
		viewport: viewport,
		region:   &region,
		sections: make(map[string]Rect),
	}
}

func (h *fakeHost) ScrollY() float64        { return h.scrollY }
func (h *fakeHost) ViewportHeight() float64 { return h.viewport }

func (h *fakeHost) Region() (Rect, bool) {
	if h.region == nil {
		return Rect{}, false
	}
	return *h.region, true
}

func (h *fakeHost) Section(id string) (Rect, bool) {
	r, ok := h.sections[id]
	return r, ok
}

func (h *fakeHost) Observe(threshold float64, rootMargin string, fn func(bool)) func() {
	h.observing = fn
	h.observeCfg = [2]any{threshold, rootMargin}
	return func() { h.observing = nil }
}

func (h *fakeHost) ListenScroll(fn func()) func() {
	h.scrollFn = fn
	h.listens++
	return func() { h.scrollFn = nil }
}

func (h *fakeHost) RequestFrame(fn func()) {
	h.frames = append(h.frames, fn)
}

// flush runs queued animation frames.
func (h *fakeHost) flush() {
	for len(h.frames) > 0 {
		frames := h.frames
		h.frames = nil
		for _, fn := range frames {
			fn()
		}
	}
}

func (h *fakeHost) intersect(v bool) {
	if h.observing != nil {
		h.observing(v)
	}
}

// scrollBy moves the page, fires the scroll listener if attached and runs
// the resulting frame.
func (h *fakeHost) scrollBy(delta float64) {
	h.scrollY += delta
	if h.region != nil {
		h.region.Top -= delta
	}
	for id, r := range h.sections {
		r.Top -= delta
		h.sections[id] = r
	}
	if h.scrollFn != nil {
		h.scrollFn()
	}
	h.flush()
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) pending() int {
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

// Advance moves time forward and fires due timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}
