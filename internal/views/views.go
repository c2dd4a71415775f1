// Package views holds the HTMX fragments and template helpers shared by the
// page handlers.
package views

import (
	"context"
	"html"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/fade"
)

// HXRequest is the header HTMX sets on every request it issues.
const HXRequest = "HX-Request"

// Contact form responses.
const (
	ContactSuccess = "Thank you for your message! I'll get back to you soon."
	ContactFailure = "Failed to send your message. Please try again later."
)

// IsHTMX reports whether the request was issued by HTMX.
func IsHTMX(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(HXRequest), "true")
}

// Render writes a component with the given status.
func Render(c *gin.Context, status int, comp templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := comp.Render(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// ContactResult renders the message shown after a send attempt.
func ContactResult(ok bool) templ.Component {
	class, text := "form-message error", ContactFailure
	if ok {
		class, text = "form-message success", ContactSuccess
	}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="form-message" class="`+class+`" role="status">`+
			html.EscapeString(text)+`</div>`)
		return err
	})
}

// ContactInvalid renders per-field validation messages.
func ContactInvalid(fields map[string]string) templ.Component {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="form-message" class="form-message error" role="alert"><ul>`)
		for _, k := range keys {
			b.WriteString(`<li data-field="` + html.EscapeString(k) + `">` + html.EscapeString(fields[k]) + `</li>`)
		}
		b.WriteString(`</ul></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Theme is the colour scheme stored in the theme cookie.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeCookie names the cookie holding the current Theme.
const ThemeCookie = "theme"

// ParseTheme maps a cookie value onto a Theme; anything unknown is light.
func ParseTheme(raw string) Theme {
	if Theme(raw) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ThemeToggle renders the button that flips the theme.
func ThemeToggle(t Theme) templ.Component {
	label, icon := "Switch to dark mode", "moon"
	if t == ThemeDark {
		label, icon = "Switch to light mode", "sun"
	}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<button id="theme-toggle" class="theme-toggle" hx-post="/theme" hx-swap="outerHTML" `+
			`data-theme="`+string(t)+`" aria-label="`+label+`"><span class="icon icon-`+icon+`"></span></button>`)
		return err
	})
}

// FuncMap returns the helpers the page templates use.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"fadeAttrs": FadeAttrs,
		"fadeStyle": FadeStyle,
		"themeToggle": func(t Theme) (template.HTML, error) {
			var b strings.Builder
			if err := ThemeToggle(t).Render(context.Background(), &b); err != nil {
				return "", err
			}
			return template.HTML(b.String()), nil
		},
		"pct": func(level int) string {
			if level < 0 {
				level = 0
			}
			if level > 100 {
				level = 100
			}
			return strconv.Itoa(level) + "%"
		},
	}
}

// FadeAttrs renders cfg as data-fade attributes, sorted by name.
func FadeAttrs(cfg fade.Config) template.HTMLAttr {
	attrs := cfg.Attrs()
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("data-fade")
	for _, name := range names {
		b.WriteString(" " + name + `="` + html.EscapeString(attrs[name]) + `"`)
	}
	return template.HTMLAttr(b.String())
}

// FadeStyle is the inline style a faded region starts with before the
// browser controller mounts.
func FadeStyle(cfg fade.Config) template.CSS {
	return template.CSS(fade.New(nil, nil, cfg).Style().CSS())
}
