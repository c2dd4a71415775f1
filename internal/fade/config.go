// Package fade computes the scroll-driven opacity of a page section.
//
// A Fader watches one tracked region through a Host (the browser, or a fake
// in tests) and turns scroll position, visibility and viewing time into an
// opacity in [MinOpacity, 1] plus a CSS transition descriptor.
package fade

import "time"

// Config tunes a Fader. Start from DefaultConfig and override fields; zero
// values are meaningful (a ViewTime of 0 means no minimum viewing time).
type Config struct {
	Threshold       float64       `yaml:"threshold"`
	RootMargin      string        `yaml:"rootMargin"`
	FadeStart       float64       `yaml:"fadeStart"`
	FadeEnd         float64       `yaml:"fadeEnd"`
	Duration        time.Duration `yaml:"duration"`
	ViewTime        time.Duration `yaml:"viewTime"`
	ScrollThreshold float64       `yaml:"scrollThreshold"`
	MinOpacity      float64       `yaml:"minOpacity"`
	AnimationDelay  time.Duration `yaml:"animationDelay"`
	TargetSectionID string        `yaml:"targetSectionId"`

	// CenterBand is the distance, as a fraction of viewport height, within
	// which a centered region is lifted to CenterFloor. 0 disables the lift;
	// DefaultConfig leaves it off, so the 0.4 band is opt-in per section.
	CenterBand  float64 `yaml:"centerBand"`
	CenterFloor float64 `yaml:"centerFloor"`
}

// DefaultConfig returns the stock fade tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.1,
		RootMargin:      "0px",
		FadeStart:       0.95,
		FadeEnd:         1.99,
		Duration:        2500 * time.Millisecond,
		ViewTime:        8 * time.Second,
		ScrollThreshold: 100,
		MinOpacity:      0.98,
		AnimationDelay:  500 * time.Millisecond,
		CenterFloor:     0.98,
	}
}

// normalized clamps every field into its usable range.
func (c Config) normalized() Config {
	c.Threshold = clamp01(c.Threshold)
	c.MinOpacity = clamp01(c.MinOpacity)
	c.CenterBand = clamp01(c.CenterBand)
	c.CenterFloor = clamp01(c.CenterFloor)
	if c.RootMargin == "" {
		c.RootMargin = "0px"
	}
	if c.FadeStart < 0 {
		c.FadeStart = 0
	}
	if c.FadeEnd < c.FadeStart {
		c.FadeEnd = c.FadeStart
	}
	if c.Duration < 0 {
		c.Duration = 0
	}
	if c.ViewTime < 0 {
		c.ViewTime = 0
	}
	if c.AnimationDelay < 0 {
		c.AnimationDelay = 0
	}
	if c.ScrollThreshold < 0 {
		c.ScrollThreshold = 0
	}
	return c
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
