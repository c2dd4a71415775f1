//go:build js && wasm

// Command fader binds the scroll-fade controller to every [data-fade]
// section on the page and drives the navigation progress bar.
//
//	GOOS=js GOARCH=wasm go build -o static/fader.wasm ./cmd/fader
package main

import (
	"strconv"
	"syscall/js"

	"github.com/Zachkp/folio/internal/fade"
)

var (
	window   = js.Global()
	document = js.Global().Get("document")
)

// domHost adapts one section element to fade.Host.
type domHost struct {
	el    js.Value
	fader *fade.Fader
}

func (h *domHost) ScrollY() float64 {
	return window.Get("scrollY").Float()
}

func (h *domHost) ViewportHeight() float64 {
	return window.Get("innerHeight").Float()
}

func (h *domHost) Region() (fade.Rect, bool) {
	if !h.el.Truthy() || !h.el.Get("isConnected").Bool() {
		return fade.Rect{}, false
	}
	return rectOf(h.el), true
}

func (h *domHost) Section(id string) (fade.Rect, bool) {
	el := document.Call("getElementById", id)
	if !el.Truthy() {
		return fade.Rect{}, false
	}
	return rectOf(el), true
}

func (h *domHost) Observe(threshold float64, rootMargin string, fn func(bool)) func() {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		entries := args[0]
		for i := 0; i < entries.Length(); i++ {
			fn(entries.Index(i).Get("isIntersecting").Bool())
		}
		return nil
	})
	observer := window.Get("IntersectionObserver").New(cb, map[string]any{
		"threshold":  threshold,
		"rootMargin": rootMargin,
	})
	observer.Call("observe", h.el)
	return func() {
		observer.Call("unobserve", h.el)
		observer.Call("disconnect")
		cb.Release()
	}
}

func (h *domHost) ListenScroll(fn func()) func() {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	window.Call("addEventListener", "scroll", cb, map[string]any{"passive": true})
	return func() {
		window.Call("removeEventListener", "scroll", cb)
		cb.Release()
	}
}

func (h *domHost) RequestFrame(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		cb.Release()
		fn()
		h.apply()
		return nil
	})
	window.Call("requestAnimationFrame", cb)
}

func (h *domHost) apply() {
	if h.fader == nil || !h.el.Truthy() {
		return
	}
	style := h.fader.Style()
	h.el.Get("style").Set("opacity", style.Opacity)
	h.el.Get("style").Set("transition", style.Transition)
	h.el.Get("style").Set("willChange", style.WillChange)
	if st := h.fader.State(); st.IsVisible {
		h.el.Get("classList").Call("remove", "fade-hidden")
	} else {
		h.el.Get("classList").Call("add", "fade-hidden")
	}
}

func rectOf(el js.Value) fade.Rect {
	r := el.Call("getBoundingClientRect")
	return fade.Rect{Top: r.Get("top").Float(), Height: r.Get("height").Float()}
}

func attrLookup(el js.Value) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v := el.Call("getAttribute", name)
		if v.IsNull() || v.IsUndefined() {
			return "", false
		}
		return v.String(), true
	}
}

// mount binds a new fader to one [data-fade] element.
func mount(el js.Value) *fade.Fader {
	cfg, err := fade.ParseAttrs(attrLookup(el))
	if err != nil {
		window.Get("console").Call("warn", "fader: "+err.Error())
		cfg = fade.DefaultConfig()
	}
	host := &domHost{el: el}
	host.fader = fade.New(host, fade.SystemClock{}, cfg)
	host.fader.Mount()
	host.apply()
	return host.fader
}

func connected(el js.Value) bool {
	return el.Truthy() && el.Get("isConnected").Bool()
}

func fadeElements() []js.Value {
	nodes := document.Call("querySelectorAll", "[data-fade]")
	out := make([]js.Value, 0, nodes.Length())
	for i := 0; i < nodes.Length(); i++ {
		out = append(out, nodes.Index(i))
	}
	return out
}

// trackProgress scales the [data-scroll-progress] bar with page scroll.
func trackProgress() {
	update := js.FuncOf(func(this js.Value, args []js.Value) any {
		bar := document.Call("querySelector", "[data-scroll-progress]")
		if !bar.Truthy() {
			return nil
		}
		p := fade.Progress(
			window.Get("scrollY").Float(),
			document.Get("documentElement").Get("scrollHeight").Float(),
			window.Get("innerHeight").Float(),
		)
		bar.Get("style").Set("transform", "scaleX("+strconv.FormatFloat(p, 'f', 4, 64)+")")
		return nil
	})
	window.Call("addEventListener", "scroll", update, map[string]any{"passive": true})
	update.Invoke()
}

func main() {
	bindings := fade.NewBindings(js.Value.Equal)
	bindings.Sync(fadeElements(), connected, mount)
	trackProgress()

	// Only sections replaced by a swap get a fresh fader.
	resync := js.FuncOf(func(this js.Value, args []js.Value) any {
		bindings.Sync(fadeElements(), connected, mount)
		return nil
	})
	document.Get("body").Call("addEventListener", "htmx:afterSettle", resync)
	window.Call("addEventListener", "pagehide", js.FuncOf(func(this js.Value, args []js.Value) any {
		bindings.UnmountAll()
		return nil
	}))
	window.Set("faderReady", true)

	select {}
}
