package fade

import "time"

// Rect is the vertical geometry of a region relative to the viewport top.
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns the region's bottom edge.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Host is the environment a Fader observes. Region and Section report false
// when the element is missing from the layout.
type Host interface {
	ScrollY() float64
	ViewportHeight() float64
	Region() (Rect, bool)
	Section(id string) (Rect, bool)

	// Observe reports intersection changes of the tracked region until the
	// returned stop func is called.
	Observe(threshold float64, rootMargin string, fn func(intersecting bool)) (stop func())
	// ListenScroll registers a passive scroll listener.
	ListenScroll(fn func()) (stop func())
	// RequestFrame runs fn once before the next repaint.
	RequestFrame(fn func())
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock supplies time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
