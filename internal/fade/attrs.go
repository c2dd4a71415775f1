package fade

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Attribute names carried on a section element.
const (
	AttrThreshold       = "data-fade-threshold"
	AttrRootMargin      = "data-fade-root-margin"
	AttrStart           = "data-fade-start"
	AttrEnd             = "data-fade-end"
	AttrDuration        = "data-fade-duration"
	AttrViewTime        = "data-fade-view-time"
	AttrScrollThreshold = "data-fade-scroll-threshold"
	AttrMinOpacity      = "data-fade-min-opacity"
	AttrDelay           = "data-fade-delay"
	AttrTarget          = "data-fade-target"
	AttrCenterBand      = "data-fade-center-band"
	AttrCenterFloor     = "data-fade-center-floor"
)

// Attrs encodes the configuration as data attributes.
func (c Config) Attrs() map[string]string {
	attrs := map[string]string{
		AttrThreshold:       formatFloat(c.Threshold),
		AttrRootMargin:      c.RootMargin,
		AttrStart:           formatFloat(c.FadeStart),
		AttrEnd:             formatFloat(c.FadeEnd),
		AttrDuration:        c.Duration.String(),
		AttrViewTime:        c.ViewTime.String(),
		AttrScrollThreshold: formatFloat(c.ScrollThreshold),
		AttrMinOpacity:      formatFloat(c.MinOpacity),
		AttrDelay:           c.AnimationDelay.String(),
		AttrCenterBand:      formatFloat(c.CenterBand),
		AttrCenterFloor:     formatFloat(c.CenterFloor),
	}
	if c.TargetSectionID != "" {
		attrs[AttrTarget] = c.TargetSectionID
	}
	return attrs
}

// ParseAttrs builds a Config from data attributes, starting from
// DefaultConfig. Durations accept Go syntax ("2.5s") or bare seconds.
func ParseAttrs(lookup func(name string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	floats := []struct {
		name string
		dst  *float64
	}{
		{AttrThreshold, &cfg.Threshold},
		{AttrStart, &cfg.FadeStart},
		{AttrEnd, &cfg.FadeEnd},
		{AttrScrollThreshold, &cfg.ScrollThreshold},
		{AttrMinOpacity, &cfg.MinOpacity},
		{AttrCenterBand, &cfg.CenterBand},
		{AttrCenterFloor, &cfg.CenterFloor},
	}
	for _, f := range floats {
		raw, ok := attr(lookup, f.name)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{AttrDuration, &cfg.Duration},
		{AttrViewTime, &cfg.ViewTime},
		{AttrDelay, &cfg.AnimationDelay},
	}
	for _, d := range durations {
		raw, ok := attr(lookup, d.name)
		if !ok {
			continue
		}
		v, err := parseSeconds(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	if raw, ok := attr(lookup, AttrRootMargin); ok {
		cfg.RootMargin = raw
	}
	if raw, ok := attr(lookup, AttrTarget); ok {
		cfg.TargetSectionID = raw
	}
	return cfg, nil
}

func attr(lookup func(string) (string, bool), name string) (string, bool) {
	raw, ok := lookup(name)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func parseSeconds(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
