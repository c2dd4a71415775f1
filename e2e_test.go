//go:build e2e

// Browser tests; run with `go test -tags e2e .` on a machine with Chrome
// (rod downloads one when none is found) and network access for htmx.
// The setup compiles ./cmd/fader to WebAssembly, so a Go toolchain with
// js/wasm support must be on PATH.
package main

import (
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/content"
)

// buildStatic assembles a static dir holding the site assets plus a freshly
// built fader.wasm and the toolchain's wasm_exec.js.
func buildStatic(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"site.js", "site.css"} {
		copyFile(t, filepath.Join("static", name), filepath.Join(dir, name))
	}

	build := exec.Command("go", "build", "-o", filepath.Join(dir, "fader.wasm"), "./cmd/fader")
	build.Env = append(os.Environ(), "GOOS=js", "GOARCH=wasm")
	out, err := build.CombinedOutput()
	require.NoError(t, err, "build fader.wasm: %s", out)

	goroot, err := exec.Command("go", "env", "GOROOT").Output()
	require.NoError(t, err)
	root := strings.TrimSpace(string(goroot))
	for _, rel := range []string{"lib/wasm/wasm_exec.js", "misc/wasm/wasm_exec.js"} {
		src := filepath.Join(root, rel)
		if _, err := os.Stat(src); err == nil {
			copyFile(t, src, filepath.Join(dir, "wasm_exec.js"))
			return dir
		}
	}
	t.Fatalf("wasm_exec.js not found under %s", root)
	return ""
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func openBrowser(t *testing.T, srv *server) *rod.Page {
	t.Helper()
	srv.cfg.StaticDir = buildStatic(t)
	ts := httptest.NewServer(srv.router())
	t.Cleanup(ts.Close)

	u, err := launcher.New().Headless(true).Launch()
	require.NoError(t, err)
	browser := rod.New().ControlURL(u).MustConnect()
	t.Cleanup(func() { browser.MustClose() })

	return browser.MustPage(ts.URL).MustWaitLoad().Timeout(20 * time.Second)
}

func newBrowserPage(t *testing.T) *rod.Page {
	t.Helper()
	srv, _ := newTestServer(t)
	return openBrowser(t, srv)
}

func TestE2ENavigateToAbout(t *testing.T) {
	page := newBrowserPage(t)

	page.MustElement(`nav a[href="/about"]`).MustClick()
	page.MustWait(`() => location.pathname === "/about"`)

	assert.Equal(t, "About Me", page.MustElement("#about h2").MustText())
	assert.False(t, page.MustHas("#projects"))
}

func TestE2EContactSubmit(t *testing.T) {
	page := newBrowserPage(t)

	page.MustElement(`nav a[href="/contact"]`).MustClick()
	page.MustWait(`() => location.pathname === "/contact"`)

	page.MustElement("#name").MustInput("Ada")
	page.MustElement("#email").MustInput("ada@example.com")
	page.MustElement("#subject").MustInput("Hello")
	page.MustElement("#message").MustInput("Testing the contact form.")
	page.MustElement(`.contact-form button[type="submit"]`).MustClick()

	msg := page.MustElement("#form-message.success")
	assert.Contains(t, msg.MustText(), "Thank you for your message!")
}

func TestE2EThemeToggle(t *testing.T) {
	page := newBrowserPage(t)

	page.MustElement("#theme-toggle").MustClick()
	page.MustWait(`() => document.querySelector("#theme-toggle").dataset.theme === "dark"`)

	cookies := page.MustCookies()
	var theme string
	for _, c := range cookies {
		if c.Name == "theme" {
			theme = c.Value
		}
	}
	assert.Equal(t, "dark", theme)
}

func TestE2ECertificateModal(t *testing.T) {
	page := newBrowserPage(t)

	page.MustElement(`#certificates a[href="/certificates/1"]`).MustClick()
	modal := page.MustElement("#modal-root #modal")
	assert.Contains(t, modal.MustText(), "Varcons Technologies")

	page.MustElement("#modal .modal-close").MustClick()
	page.MustWait(`() => document.querySelector("#modal") === null`)
}

// fadedAbout nudges the page around a point just past the top of #about so
// scroll events keep firing, and reports whether the controller has faded it.
const fadedAbout = `() => {
	const about = document.getElementById("about");
	window.__nudge = window.__nudge === 2 ? -2 : 2;
	window.scrollTo(0, about.offsetTop + 40 + window.__nudge);
	return about.style.transition.startsWith("opacity") && parseFloat(about.style.opacity) < 1;
}`

func TestE2EFaderDrivesSectionStyle(t *testing.T) {
	srv, _ := newTestServer(t)
	site := srv.site.Site()
	about := site.Fade("about")
	about.ViewTime, about.AnimationDelay, about.ScrollThreshold = 0, 0, 0
	about.FadeStart, about.FadeEnd, about.MinOpacity, about.CenterBand = 0, 0.5, 0.5, 0
	site.Sections["about"] = content.FadeSettings{Config: about}

	page := openBrowser(t, srv)
	page.MustWait(`() => window.faderReady === true`)
	page.MustWait(fadedAbout)

	style := page.MustEval(`() => document.getElementById("about").style.transition`).Str()
	assert.Contains(t, style, "opacity 2.5s cubic-bezier")

	// Swapping an unrelated element leaves the section's fader alone. The
	// click is dispatched in place so the page does not scroll.
	page.MustEval(`() => document.getElementById("theme-toggle").click()`)
	page.MustWait(`() => document.querySelector("#theme-toggle").dataset.theme === "dark"`)
	time.Sleep(200 * time.Millisecond)

	opacity := page.MustEval(`() => parseFloat(document.getElementById("about").style.opacity)`).Num()
	assert.Less(t, opacity, 1.0)
	assert.True(t, strings.HasPrefix(
		page.MustEval(`() => document.getElementById("about").style.transition`).Str(), "opacity"))
}
