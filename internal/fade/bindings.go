package fade

// Bindings tracks the Faders mounted on the elements of one page. E is the
// element handle; handles are compared with the func given to NewBindings.
type Bindings[E any] struct {
	same  func(a, b E) bool
	items []binding[E]
}

type binding[E any] struct {
	el    E
	fader *Fader
}

func NewBindings[E any](same func(a, b E) bool) *Bindings[E] {
	return &Bindings[E]{same: same}
}

// Sync reconciles the bindings with the current page. Faders whose element
// is no longer attached are unmounted; elements without a Fader get one from
// mount. Faders of untouched elements keep their state.
func (b *Bindings[E]) Sync(elements []E, attached func(E) bool, mount func(E) *Fader) (added, removed int) {
	kept := b.items[:0]
	for _, it := range b.items {
		if attached(it.el) {
			kept = append(kept, it)
			continue
		}
		it.fader.Unmount()
		removed++
	}
	clear(b.items[len(kept):])
	b.items = kept

	for _, el := range elements {
		if b.Lookup(el) != nil {
			continue
		}
		f := mount(el)
		if f == nil {
			continue
		}
		b.items = append(b.items, binding[E]{el: el, fader: f})
		added++
	}
	return added, removed
}

// Lookup returns the Fader bound to el, or nil.
func (b *Bindings[E]) Lookup(el E) *Fader {
	for _, it := range b.items {
		if b.same(it.el, el) {
			return it.fader
		}
	}
	return nil
}

func (b *Bindings[E]) Len() int {
	return len(b.items)
}

// UnmountAll unmounts every Fader and forgets the elements.
func (b *Bindings[E]) UnmountAll() {
	for _, it := range b.items {
		it.fader.Unmount()
	}
	clear(b.items)
	b.items = b.items[:0]
}
