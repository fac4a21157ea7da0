package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/health"
	"github.com/dbconsole/dbconsole/internal/model"
)

//go:embed templates
var templateFS embed.FS

var pageNames = []string{
	"connections",
	"users",
	"roles",
	"tablespaces",
	"tablespace",
	"security",
	"optimization",
	"monitoring",
	"backup",
	"notfound",
}

type pageSet struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"mb": func(f float64) string {
		if f <= 0 {
			return "-"
		}
		return humanize.IBytes(uint64(f * 1024 * 1024))
	},
	"bytes": func(n int64) string {
		if n <= 0 {
			return "-"
		}
		return humanize.IBytes(uint64(n))
	},
	"comma": func(n int64) string { return humanize.Comma(n) },
	"float": func(f float64) string { return humanize.FtoaWithDigits(f, 2) },
	"join":  strings.Join,
	"lower": strings.ToLower,
}

func loadPages() (*pageSet, error) {
	ps := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		ps.pages[name] = t
	}
	return ps, nil
}

// navItem is one sidebar entry.
type navItem struct {
	Path  string
	Label string
	Key   string
}

var nav = []navItem{
	{"/", "Dashboard", "connections"},
	{"/users", "Users", "users"},
	{"/roles", "Roles", "roles"},
	{"/tablespaces", "Tablespaces", "tablespaces"},
	{"/security", "Security", "security"},
	{"/optimization", "Optimization", "optimization"},
	{"/monitoring", "Monitoring", "monitoring"},
	{"/backup", "Backup & Restore", "backup"},
}

// view is what every page template receives.
type view struct {
	Title     string
	Page      string
	Nav       []navItem
	Active    *model.Connection
	Backend   health.BackendHealth
	Toasts    []Toast
	Data      any
	CSRF      template.HTML
	CSRFToken string
}

// BackendDown reports whether the health checker considers the backend
// unreachable.
func (v view) BackendDown() bool {
	return v.Backend.Status == health.StatusUnhealthy
}

// render writes a full page. Pending toasts are consumed.
func (s *Server) render(v *visit, status int, page, title string, data any) {
	t, ok := s.pages.pages[page]
	if !ok {
		http.Error(v.w, "unknown page", http.StatusInternalServerError)
		return
	}

	navKey := page
	if page == "tablespace" {
		navKey = "tablespaces"
	}
	vw := view{
		Title:     title,
		Page:      navKey,
		Nav:       nav,
		Active:    v.store.ActiveConnection(),
		Toasts:    v.toasts(),
		Data:      data,
		CSRF:      csrf.TemplateField(v.r),
		CSRFToken: csrf.Token(v.r),
	}
	if s.healthCheck != nil {
		vw.Backend = s.healthCheck.GetStatus()
	}
	vw.Toasts = append(vw.Toasts, v.inline...)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", vw); err != nil {
		slog.Error("rendering page", "page", page, "err", err)
		http.Error(v.w, "internal error", http.StatusInternalServerError)
		return
	}

	if !v.save() {
		return
	}
	v.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	v.w.WriteHeader(status)
	v.w.Write(buf.Bytes())
}

// warn shows a toast on the page being rendered without going through the
// session, for load errors that should not survive a reload.
func (v *visit) warn(title string, err error) {
	v.inline = append(v.inline, Toast{Kind: toastError, Title: title, Message: client.Message(err)})
}
