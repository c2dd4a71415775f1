package fade

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	// consumedRatio is how much of the region must be read before fading.
	consumedRatio = 0.8
	// targetLine is the viewport fraction a target section's top must reach.
	targetLine = 0.8
	// targetRampStart and targetRampSpan shape the fade over target visibility.
	targetRampStart = 0.2
	targetRampSpan  = 0.6
	// visibleOpacity is the cut-off below which a region counts as hidden.
	visibleOpacity = 0.3

	easeOutCurve = "cubic-bezier(0.25, 0.46, 0.45, 0.94)"
)

// State is a snapshot of a Fader.
type State struct {
	Opacity             float64
	IsVisible           bool
	Intersecting        bool
	HasStartedScrolling bool
	FadeArmed           bool
	AnimationStarted    bool
	ContentConsumed     float64
	ScrollAccumulated   float64
	TimeViewed          time.Duration
}

// Style is what the rendering layer applies to the tracked region.
type Style struct {
	Opacity    float64
	Transition string
	WillChange string
}

// CSS renders the style as an inline style attribute value.
func (s Style) CSS() string {
	return fmt.Sprintf("opacity:%s;transition:%s;will-change:%s",
		formatFloat(s.Opacity), s.Transition, s.WillChange)
}

// Fader drives the opacity of one tracked region.
//
// All Host callbacks (intersection, scroll, frame) and the delayed-arm timer
// funnel into the same mutex, so a Fader may be driven from a single UI
// thread or from goroutines alike.
type Fader struct {
	host  Host
	clock Clock
	cfg   Config

	mu           sync.Mutex
	mounted      bool
	closed       bool
	pending      bool
	intersecting bool
	lastScrollY  float64
	scrolled     float64
	started      bool
	enteredAt    time.Time
	consumed     float64
	armed        bool
	animating    bool
	opacity      float64
	visible      bool

	timer       Timer
	gen         uint64
	stopObserve func()
	stopScroll  func()
}

// New returns an unmounted Fader. A nil clock means the wall clock.
func New(host Host, clock Clock, cfg Config) *Fader {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Fader{
		host:    host,
		clock:   clock,
		cfg:     cfg.normalized(),
		opacity: 1,
		visible: true,
	}
}

// Config returns the normalized configuration in use.
func (f *Fader) Config() Config {
	return f.cfg
}

// Mount starts observing the tracked region and computes the first frame.
func (f *Fader) Mount() {
	f.mu.Lock()
	if f.mounted || f.closed {
		f.mu.Unlock()
		return
	}
	f.mounted = true
	f.lastScrollY = f.host.ScrollY()
	f.mu.Unlock()

	stop := f.host.Observe(f.cfg.Threshold, f.cfg.RootMargin, f.Intersect)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		stop()
		return
	}
	f.stopObserve = stop
	f.mu.Unlock()

	f.Frame()
}

// Unmount detaches every listener and cancels a pending arm timer. No state
// changes after Unmount returns.
func (f *Fader) Unmount() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.cancelTimer()
	stopObserve, stopScroll := f.stopObserve, f.stopScroll
	f.stopObserve, f.stopScroll = nil, nil
	f.mu.Unlock()

	if stopObserve != nil {
		stopObserve()
	}
	if stopScroll != nil {
		stopScroll()
	}
}

// Intersect is the intersection observer callback. The scroll listener is
// only attached while the region intersects the viewport.
func (f *Fader) Intersect(intersecting bool) {
	f.mu.Lock()
	if f.closed || !f.mounted || f.intersecting == intersecting {
		f.mu.Unlock()
		return
	}
	f.intersecting = intersecting

	var detach func()
	attach := false
	if intersecting {
		if f.enteredAt.IsZero() {
			f.enteredAt = f.clock.Now()
		}
		attach = f.stopScroll == nil
	} else {
		f.enteredAt = time.Time{}
		f.consumed = 0
		detach, f.stopScroll = f.stopScroll, nil
	}
	f.mu.Unlock()

	if detach != nil {
		detach()
	}
	if !attach {
		return
	}

	stop := f.host.ListenScroll(f.Scroll)
	f.mu.Lock()
	if f.closed || !f.intersecting || f.stopScroll != nil {
		f.mu.Unlock()
		stop()
		return
	}
	f.stopScroll = stop
	f.mu.Unlock()
}

// Scroll is the scroll listener. Bursts of events collapse into one Frame.
func (f *Fader) Scroll() {
	f.requestFrame()
}

func (f *Fader) requestFrame() {
	f.mu.Lock()
	if f.closed || f.pending {
		f.mu.Unlock()
		return
	}
	f.pending = true
	f.mu.Unlock()

	f.host.RequestFrame(f.Frame)
}

// Frame processes one coalesced update.
func (f *Fader) Frame() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = false
	if f.closed {
		return
	}
	f.update()
}

// State returns a snapshot of the fade state.
func (f *Fader) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return State{
		Opacity:             f.opacity,
		IsVisible:           f.visible,
		Intersecting:        f.intersecting,
		HasStartedScrolling: f.started,
		FadeArmed:           f.armed,
		AnimationStarted:    f.animating,
		ContentConsumed:     f.consumed,
		ScrollAccumulated:   f.scrolled,
		TimeViewed:          f.timeViewed(),
	}
}

// Style returns the style descriptor for the current state.
func (f *Fader) Style() Style {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Style{Opacity: f.opacity, Transition: "none", WillChange: "opacity"}
	if f.armed && f.started && f.animating {
		s.Transition = fmt.Sprintf("opacity %ss %s", formatFloat(f.cfg.Duration.Seconds()), easeOutCurve)
	}
	return s
}

func (f *Fader) timeViewed() time.Duration {
	if f.enteredAt.IsZero() {
		return 0
	}
	return f.clock.Now().Sub(f.enteredAt)
}

// update runs the per-frame pipeline. Callers hold f.mu.
func (f *Fader) update() {
	y := f.host.ScrollY()
	f.scrolled += math.Abs(y - f.lastScrollY)
	f.lastScrollY = y
	if f.scrolled > f.cfg.ScrollThreshold {
		f.started = true
	}

	region, ok := f.host.Region()
	vh := f.host.ViewportHeight()
	if !ok || region.Height <= 0 || vh <= 0 {
		return
	}

	viewed := f.timeViewed()
	if f.intersecting && !f.enteredAt.IsZero() {
		visible := math.Min(region.Bottom(), vh) - math.Max(region.Top, 0)
		f.consumed = consumption(clamp01(visible/region.Height), viewed, f.cfg.ViewTime)
	}

	viewedLongEnough := viewed >= f.cfg.ViewTime
	scrolledEnough := f.started && f.scrolled > f.cfg.ScrollThreshold
	consumedEnough := f.consumed >= consumedRatio

	hasTarget := f.cfg.TargetSectionID != ""
	var target Rect
	targetReached := false
	if hasTarget {
		if t, ok := f.host.Section(f.cfg.TargetSectionID); ok {
			target = t
			targetReached = t.Top <= vh*targetLine
		}
		if !targetReached && f.armed {
			f.disarm()
		}
	}

	if viewedLongEnough && scrolledEnough && consumedEnough && !f.armed && (!hasTarget || targetReached) {
		f.arm()
	}

	if !f.armed || !f.started || !f.animating {
		f.opacity = 1
		f.visible = true
		return
	}

	var opacity float64
	if hasTarget {
		opacity = f.targetOpacity(target, vh)
	} else {
		opacity = f.regionOpacity(region, vh)
		if f.cfg.CenterBand > 0 {
			center := region.Top + region.Height/2
			if math.Abs(center-vh/2) < vh*f.cfg.CenterBand {
				opacity = math.Max(opacity, f.cfg.CenterFloor)
			}
		}
	}

	f.opacity = math.Min(1, math.Max(f.cfg.MinOpacity, opacity))
	f.visible = f.opacity > visibleOpacity
}

func (f *Fader) arm() {
	f.armed = true
	if f.cfg.AnimationDelay <= 0 {
		f.animating = true
		return
	}
	f.cancelTimer()
	gen := f.gen
	f.timer = f.clock.AfterFunc(f.cfg.AnimationDelay, func() {
		f.startAnimation(gen)
	})
}

func (f *Fader) disarm() {
	f.cancelTimer()
	f.armed = false
	f.animating = false
	f.opacity = 1
	f.visible = true
}

// cancelTimer stops the arm timer and invalidates any callback already in
// flight. Callers hold f.mu.
func (f *Fader) cancelTimer() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Fader) startAnimation(gen uint64) {
	f.mu.Lock()
	if f.closed || gen != f.gen || !f.armed {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	f.animating = true
	f.mu.Unlock()

	f.requestFrame()
}

func (f *Fader) targetOpacity(target Rect, vh float64) float64 {
	visibility := clamp01((vh - target.Top) / vh)
	if visibility <= targetRampStart {
		return 1
	}
	return f.eased(clamp01((visibility - targetRampStart) / targetRampSpan))
}

func (f *Fader) regionOpacity(region Rect, vh float64) float64 {
	opacity := 1.0
	if bottom := region.Bottom(); bottom < vh {
		past := vh - bottom
		start := region.Height * f.cfg.FadeStart
		end := region.Height * f.cfg.FadeEnd
		if past > start {
			if past >= end {
				opacity = f.cfg.MinOpacity
			} else {
				opacity = f.eased((past - start) / (end - start))
			}
		}
	}
	if region.Top > vh {
		opacity = f.cfg.MinOpacity
	}
	return opacity
}

// eased maps fade progress onto [MinOpacity, 1] with a cubic ease-out.
func (f *Fader) eased(progress float64) float64 {
	return math.Max(f.cfg.MinOpacity, 1-easeOutCubic(progress)*(1-f.cfg.MinOpacity))
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

func consumption(ratio float64, viewed, viewTime time.Duration) float64 {
	if viewTime <= 0 {
		if ratio > 0 {
			return 1
		}
		return 0
	}
	return math.Min(1, ratio*viewed.Seconds()/viewTime.Seconds())
}

// Progress reports how far the page has been scrolled, in [0,1].
func Progress(scrollY, documentHeight, viewportHeight float64) float64 {
	scrollable := documentHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return clamp01(scrollY / scrollable)
}
