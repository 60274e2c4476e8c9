package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
	"github.com/cloudyy74/frappe-user-admin/internal/screen"
)

//go:embed templates/*.html
var templateFS embed.FS

var sortableColumns = []string{"name", "email", "role", "status"}

type page struct {
	View    screen.View
	Notices []models.Notice
	Columns []string

	RoleFilterOptions   []string
	StatusFilterOptions []string
	AddRoleOptions      []string
	EditRoleOptions     []string
	StatusOptions       []string
}

// choice is one rendered <option>. Value is what the browser posts back.
type choice struct {
	Option   string
	Value    string
	Selected bool
}

// choices marks the option matching current, ignoring case, and posts
// current back unchanged. A current value outside options, empty included,
// is kept as an extra selected choice so submitting the form never changes
// it.
func choices(options []string, current string) []choice {
	out := make([]choice, 0, len(options)+1)
	matched := false
	for _, opt := range options {
		c := choice{Option: opt, Value: opt}
		if !matched && strings.EqualFold(opt, current) {
			c.Value = current
			c.Selected = true
			matched = true
		}
		out = append(out, c)
	}
	if !matched {
		out = append(out, choice{Option: current, Value: current, Selected: true})
	}
	return out
}

func parseTemplates() (*template.Template, error) {
	funcs := sprig.FuncMap()
	funcs["choices"] = choices
	funcs["pathEscape"] = url.PathEscape
	return template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func newPage(scr *screen.Screen) page {
	return page{
		View:                scr.View(),
		Notices:             scr.TakeNotices(),
		Columns:             sortableColumns,
		RoleFilterOptions:   screen.RoleFilterOptions,
		StatusFilterOptions: screen.StatusFilterOptions,
		AddRoleOptions:      screen.AddRoleOptions,
		EditRoleOptions:     screen.EditRoleOptions,
		StatusOptions:       screen.EditStatusOptions,
	}
}

func (rtr *router) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := rtr.pages.ExecuteTemplate(&buf, name, data); err != nil {
		rtr.log.Error("failed to render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		rtr.log.Error("failed to write page", slog.Any("error", err))
	}
}
