package fade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	hosts    map[string]*fakeHost
	attached map[string]bool
	clock    *fakeClock
}

func newPage() *page {
	return &page{hosts: make(map[string]*fakeHost), attached: make(map[string]bool), clock: newFakeClock()}
}

func (p *page) add(ids ...string) []string {
	for _, id := range ids {
		p.attached[id] = true
	}
	var out []string
	for id, ok := range p.attached {
		if ok {
			out = append(out, id)
		}
	}
	return out
}

func (p *page) isAttached(id string) bool { return p.attached[id] }

func (p *page) mount(id string) *Fader {
	host := newFakeHost(800, Rect{Top: 300, Height: 400})
	p.hosts[id] = host
	f := New(host, p.clock, eagerConfig())
	f.Mount()
	return f
}

func sameID(a, b string) bool { return a == b }

func TestBindingsKeepStateOfUntouchedElements(t *testing.T) {
	p := newPage()
	b := NewBindings(sameID)
	t.Cleanup(b.UnmountAll)

	added, removed := b.Sync(p.add("about", "projects"), p.isAttached, p.mount)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, removed)

	about := b.Lookup("about")
	require.NotNil(t, about)
	host := p.hosts["about"]
	host.intersect(true)
	host.scrollBy(500)
	require.True(t, about.State().FadeArmed)
	faded := about.State().Opacity
	require.Less(t, faded, 1.0)

	// An unrelated swap settles: nothing was replaced.
	added, removed = b.Sync(p.add(), p.isAttached, p.mount)
	assert.Zero(t, added)
	assert.Zero(t, removed)
	assert.Same(t, about, b.Lookup("about"))
	assert.True(t, about.State().FadeArmed)
	assert.Equal(t, faded, about.State().Opacity)
}

func TestBindingsReplaceDetachedElements(t *testing.T) {
	p := newPage()
	b := NewBindings(sameID)
	t.Cleanup(b.UnmountAll)

	b.Sync(p.add("about", "projects"), p.isAttached, p.mount)
	oldHost := p.hosts["projects"]
	require.NotNil(t, oldHost.observing)

	// The projects section is swapped for a filtered copy.
	p.attached["projects"] = false
	added, removed := b.Sync(p.add("projects-data"), p.isAttached, p.mount)

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
	assert.Nil(t, oldHost.observing, "detached fader stops observing")
	assert.Nil(t, b.Lookup("projects"))
	assert.NotNil(t, b.Lookup("projects-data"))
	assert.Equal(t, 2, b.Len())
}

func TestBindingsSkipNilMount(t *testing.T) {
	p := newPage()
	b := NewBindings(sameID)

	added, _ := b.Sync(p.add("about"), p.isAttached, func(string) *Fader { return nil })
	assert.Zero(t, added)
	assert.Zero(t, b.Len())
}

func TestBindingsUnmountAll(t *testing.T) {
	p := newPage()
	b := NewBindings(sameID)
	b.Sync(p.add("about", "skills"), p.isAttached, p.mount)

	b.UnmountAll()

	assert.Zero(t, b.Len())
	for id, h := range p.hosts {
		assert.Nil(t, h.observing, id)
	}
}
