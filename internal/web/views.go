// Package web holds the HTML templates and static assets and renders pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/google/uuid"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const flashKey = "_flash"

// Page is the data every template receives.
type Page struct {
	Title string
	User  *domain.User
	Flash string
	Error string
	Data  any
}

// Views renders named pages. Each page is parsed together with the layout
// and the partials.
type Views struct {
	guard  *csrf.Guard
	logger *slog.Logger
	pages  map[string]*template.Template
}

func NewViews(guard *csrf.Guard, logger *slog.Logger) (*Views, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	v := &Views{
		guard:  guard,
		logger: logger,
		pages:  make(map[string]*template.Template),
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	adminNames, err := fs.Glob(templateFS, "templates/admin/*.html")
	if err != nil {
		return nil, err
	}

	for _, name := range append(names, adminNames...) {
		base := path.Base(name)
		if base == "layout.html" || strings.HasPrefix(base, "_") {
			continue
		}
		t, err := template.New("layout.html").Funcs(v.funcs(nil)).ParseFS(templateFS,
			"templates/layout.html",
			"templates/_*.html",
			name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")
		v.pages[key] = t
	}
	return v, nil
}

// funcs returns the template functions. The csrf ones need the request's
// session; at parse time it is nil and they are placeholders.
func (v *Views) funcs(sess *domain.Session) template.FuncMap {
	return template.FuncMap{
		"csrfField": func(identifier string) (template.HTML, error) {
			if sess == nil {
				return "", nil
			}
			secret, err := v.guard.CurrentOrIssue(sess, identifier)
			if err != nil {
				return "", err
			}
			return v.guard.HiddenField(secret) + template.HTML(fmt.Sprintf(
				`<input type="hidden" name="%s" value="%s">`,
				csrf.IdentifierField, template.HTMLEscapeString(identifier))), nil
		},
		"csrfToken": func(identifier string) (string, error) {
			if sess == nil {
				return "", nil
			}
			return v.guard.CurrentOrIssue(sess, identifier)
		},
		"date": func(t any) string {
			switch tt := t.(type) {
			case time.Time:
				return tt.Format("2 Jan 2006")
			case *time.Time:
				if tt == nil {
					return ""
				}
				return tt.Format("2 Jan 2006")
			}
			return ""
		},
		"selected": func(current *uuid.UUID, id uuid.UUID) bool {
			return current != nil && *current == id
		},
	}
}

// Render executes page into a buffer first, so tokens issued while
// rendering land in the session before the response header is written.
func (v *Views) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	t, ok := v.pages[name]
	if !ok {
		v.logger.Error("unknown template", "name", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sess := session.FromContext(r.Context())
	if sess != nil && page.Flash == "" {
		page.Flash = popFlash(sess)
	}

	t, err := t.Clone()
	if err != nil {
		v.logger.Error("failed to clone template", "name", name, logging.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	t.Funcs(v.funcs(sess))

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		v.logger.Error("failed to render template", "name", name, logging.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Error renders the generic message page.
func (v *Views) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.Render(w, r, status, "error", Page{
		Title: http.StatusText(status),
		Error: message,
	})
}

// SetFlash stores a one-shot message shown on the next rendered page.
func SetFlash(sess *domain.Session, message string) {
	if sess != nil {
		sess.Set(flashKey, message)
	}
}

func popFlash(sess *domain.Session) string {
	msg, ok := sess.Get(flashKey)
	if !ok {
		return ""
	}
	sess.Delete(flashKey)
	return msg
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
