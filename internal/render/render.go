// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin interface
// and the public site. Admin pages support full-page and HTMX partial
// rendering, automatically detecting the request type via the HX-Request
// header. Public pages always render as full documents.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"movilia/internal/middleware"
	"movilia/internal/session"
)

//go:embed templates/admin/*.html
var adminFS embed.FS

//go:embed templates/public/*.html
var publicFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active sidebar section (e.g., "dashboard", "calls")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
	Lang      string         // Active public-site language code (e.g., "es")
	T         map[string]string // Resolved interface translations for the active language
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution for admin and public pages.
type Renderer struct {
	templates map[string]*template.Template
	public    map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists admin templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// statusLabels maps call status values to their display labels.
var statusLabels = map[string]string{
	"borrador":      "Borrador",
	"abierta":       "Abierta",
	"cerrada":       "Cerrada",
	"en_baremacion": "En baremación",
	"resuelta":      "Resuelta",
	"archivada":     "Archivada",
}

// statusClasses maps call status values to badge CSS classes.
var statusClasses = map[string]string{
	"borrador":      "bg-gray-100 text-gray-700",
	"abierta":       "bg-green-100 text-green-800",
	"cerrada":       "bg-yellow-100 text-yellow-800",
	"en_baremacion": "bg-blue-100 text-blue-800",
	"resuelta":      "bg-purple-100 text-purple-800",
	"archivada":     "bg-gray-100 text-gray-500",
}

// New creates a Renderer by parsing all templates from the embedded
// filesystems. Each admin page template is paired with the admin base
// layout; each public page with the public base layout.
// When devMode is true, templates use CDN-hosted assets (TailwindCSS, HTMX,
// AlpineJS); when false, they reference compiled local static files.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		public:    make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "bg-gray-900 text-white"
				}
				return "text-gray-300 hover:bg-gray-700 hover:text-white"
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			// isDev returns true when the app runs in development mode.
			// Used by templates to conditionally load CDN vs local assets.
			"isDev": func() bool {
				return devMode
			},
			// uuidEq compares a *uuid.UUID pointer with a uuid.UUID value.
			// Returns true if the pointer is non-nil and points to the same value.
			"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
				return ptr != nil && *ptr == val
			},
			// date formats a time value as dd/mm/yyyy.
			"date": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format("02/01/2006")
			},
			// dateptr formats an optional time value as dd/mm/yyyy.
			"dateptr": func(t *time.Time) string {
				if t == nil || t.IsZero() {
					return ""
				}
				return t.Format("02/01/2006")
			},
			// datetime formats a time value as dd/mm/yyyy hh:mm.
			"datetime": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format("02/01/2006 15:04")
			},
			// datetimeptr formats an optional time value as dd/mm/yyyy hh:mm.
			"datetimeptr": func(t *time.Time) string {
				if t == nil || t.IsZero() {
					return ""
				}
				return t.Format("02/01/2006 15:04")
			},
			// statusLabel returns the display label for a call status.
			"statusLabel": func(s string) string {
				if label, ok := statusLabels[s]; ok {
					return label
				}
				return s
			},
			// statusClass returns the badge CSS classes for a call status.
			"statusClass": func(s string) string {
				if cls, ok := statusClasses[s]; ok {
					return cls
				}
				return "bg-gray-100 text-gray-700"
			},
			// join concatenates a string slice for display.
			"join": func(items []string, sep string) string {
				return strings.Join(items, sep)
			},
		},
	}

	if err := r.parseSet(adminFS, "templates/admin", r.templates); err != nil {
		return nil, err
	}
	if err := r.parseSet(publicFS, "templates/public", r.public); err != nil {
		return nil, err
	}

	return r, nil
}

// parseSet parses every page template under dir, pairing each with the
// set's base.html layout unless the template is standalone.
func (rn *Renderer) parseSet(fsys embed.FS, dir string, dst map[string]*template.Template) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read embedded templates %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := filepath.Base(e.Name())
		if name == "base.html" {
			continue
		}

		// Strip .html extension for the template name.
		tmplName := name[:len(name)-len(".html")]

		var tmpl *template.Template
		var parseErr error

		if standaloneTemplates[tmplName] && dir == "templates/admin" {
			tmpl, parseErr = template.New(name).Funcs(rn.funcMap).ParseFS(
				fsys, dir+"/"+name,
			)
		} else {
			tmpl, parseErr = template.New("base.html").Funcs(rn.funcMap).ParseFS(
				fsys, dir+"/base.html", dir+"/"+name,
			)
		}

		if parseErr != nil {
			return fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		dst[tmplName] = tmpl
	}

	return nil
}

// Page renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// For full page loads, the entire base layout is rendered.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())

	// Inject session from context.
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// HTMX request: render only the content fragment.
	if isHTMX(r) {
		if err := executeTemplate(w, tmpl, "content", data); err != nil {
			http.Error(w, "template error", http.StatusInternalServerError)
		}
		return
	}

	// Full page request: render the complete layout.
	execName := "base.html"
	// Standalone pages use their own root template (not base.html).
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	if err := executeTemplate(w, tmpl, execName, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// Public renders a public site page as a full document using the public
// base layout. Unlike admin pages, public pages never render as HTMX
// partials, so the output is cacheable as a complete response body.
func (rn *Renderer) Public(w http.ResponseWriter, name string, data *PageData) {
	tmpl, ok := rn.public[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := executeTemplate(w, tmpl, "base.html", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// PublicHTML renders a public page to a byte slice instead of the response
// writer. Handlers use this to populate the page cache with the full body
// before sending it.
func (rn *Renderer) PublicHTML(name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "base.html", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return []byte(sb.String()), nil
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
