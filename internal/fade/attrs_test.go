package fade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestParseAttrsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetSectionID = "contact"
	cfg.CenterBand = 0.4
	cfg.ViewTime = 3 * time.Second

	got, err := ParseAttrs(lookupMap(cfg.Attrs()))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseAttrsDefaultsAndBareSeconds(t *testing.T) {
	got, err := ParseAttrs(lookupMap(map[string]string{
		AttrDuration:   "1.5",
		AttrMinOpacity: " 0.5 ",
		AttrTarget:     "",
	}))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Duration = 1500 * time.Millisecond
	want.MinOpacity = 0.5
	assert.Equal(t, want, got)
}

func TestParseAttrsRejectsGarbage(t *testing.T) {
	_, err := ParseAttrs(lookupMap(map[string]string{AttrEnd: "far"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), AttrEnd)

	_, err = ParseAttrs(lookupMap(map[string]string{AttrDelay: "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), AttrDelay)
}
