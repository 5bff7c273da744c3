package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicedesk/invoicedesk/internal/money"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/web"
)

// Engine renders HTML templates. Every page is parsed into its own set
// together with the shared layouts and partials.
type Engine struct {
	sets map[string]*template.Template
	now  func() time.Time
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        *shared.CurrentUser
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	e := &Engine{sets: make(map[string]*template.Template), now: time.Now}

	base, err := template.New("root").Funcs(e.funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse layouts: %w", err)
	}

	err = fs.WalkDir(web.Templates, "templates", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		name := strings.TrimPrefix(p, "templates/")
		var set *template.Template
		switch {
		case strings.HasPrefix(name, "pages/"):
			clone, err := base.Clone()
			if err != nil {
				return err
			}
			set, err = clone.ParseFS(web.Templates, p)
			if err != nil {
				return fmt.Errorf("view: parse %s: %w", name, err)
			}
		case strings.HasPrefix(name, "documents/"):
			set, err = template.New(path.Base(p)).Funcs(e.funcs()).ParseFS(web.Templates, p)
			if err != nil {
				return fmt.Errorf("view: parse %s: %w", name, err)
			}
		default:
			return nil
		}
		e.sets[name] = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Render executes the page name with data and writes it with status. The
// page is rendered into a buffer first so a failing template never leaves a
// half-written response behind.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("view: engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Execute writes the template name to wr. Pages start at the "base" layout,
// documents at their "document" block.
func (e *Engine) Execute(wr io.Writer, name string, data any) error {
	set, ok := e.sets[name]
	if !ok {
		return fmt.Errorf("view: unknown template %q", name)
	}
	entry := "base"
	if strings.HasPrefix(name, "documents/") {
		entry = "document"
	}
	return set.ExecuteTemplate(wr, entry, data)
}

// NewPageData assembles TemplateData for r, minting the CSRF token and
// popping the pending flash message of the session.
func NewPageData(r *http.Request, csrf *shared.CSRFManager, title string, data any) TemplateData {
	td := TemplateData{Title: title, CurrentPath: r.URL.Path, Data: data}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if csrf != nil {
			td.CSRFToken, _ = csrf.EnsureToken(sess)
		}
		td.Flash = sess.PopFlash()
	}
	if user, ok := shared.UserFromContext(r.Context()); ok {
		td.User = &user
	}
	return td
}

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return FormatDate(t)
			case *time.Time:
				if t == nil {
					return ""
				}
				return FormatDate(*t)
			}
			return ""
		},
		"isoDate": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				if !t.IsZero() {
					return t.Format("2006-01-02")
				}
			case *time.Time:
				if t != nil && !t.IsZero() {
					return t.Format("2006-01-02")
				}
			}
			return ""
		},
		"relTime": func(t time.Time) string {
			return RelativeTime(t, e.now())
		},
		"money": func(code string, amount decimal.Decimal) string {
			return money.NewFormatter(code).Format(amount)
		},
		"compact": func(code string, amount decimal.Decimal) string {
			return money.NewFormatter(code).Compact(amount)
		},
		"initials": Initials,
		"phone":    FormatPhone,
		"inc": func(i int) int {
			return i + 1
		},
		"active": func(current, prefix string) bool {
			return current == prefix || strings.HasPrefix(current, prefix+"/")
		},
	}
}

// NotFoundPage is the data of the not found page.
type NotFoundPage struct {
	Back      string
	BackLabel string
}

// NotFound renders the 404 page with a link back to back.
func (e *Engine) NotFound(w http.ResponseWriter, r *http.Request, csrf *shared.CSRFManager, back, label string) error {
	if back == "" {
		back, label = "/", "Home"
	}
	return e.Render(w, http.StatusNotFound, "pages/not_found.html", NewPageData(r, csrf, "Not found", NotFoundPage{Back: back, BackLabel: label}))
}
