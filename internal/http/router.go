package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
	"github.com/cloudyy74/frappe-user-admin/internal/screen"
)

const defaultCookieName = "user_admin_session"

type SessionStore interface {
	Get(id string) (*screen.Screen, bool, error)
}

type AuditService interface {
	Recent(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

type router struct {
	sessions   SessionStore
	audit      AuditService
	cookieName string
	pages      *template.Template
	log        *slog.Logger
}

// SetupRouter registers the screen, api and ops routes on mux. audit and
// metrics may be nil.
func SetupRouter(
	mux *http.ServeMux,
	sessions SessionStore,
	audit AuditService,
	metrics http.Handler,
	cookieName string,
	log *slog.Logger,
) error {
	if mux == nil {
		return errors.New("mux cannot be nil")
	}
	if sessions == nil {
		return errors.New("session store cannot be nil")
	}
	if log == nil {
		return errors.New("logger cannot be nil")
	}
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	pages, err := parseTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r := router{
		sessions:   sessions,
		audit:      audit,
		cookieName: cookieName,
		pages:      pages,
		log:        log,
	}

	mux.HandleFunc("GET /ping", r.panicMiddleware(r.loggingMiddleware(r.ping)))
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	mux.HandleFunc("GET /{$}", r.wrap(r.index))
	mux.HandleFunc("POST /refresh", r.wrap(r.refresh))
	mux.HandleFunc("POST /filters", r.wrap(r.applyFilters))
	mux.HandleFunc("POST /filters/clear", r.wrap(r.clearFilters))
	mux.HandleFunc("POST /sort", r.wrap(r.sortBy))

	mux.HandleFunc("POST /dialogs/add", r.wrap(r.openAdd))
	mux.HandleFunc("POST /dialogs/add/submit", r.wrap(r.submitAdd))
	mux.HandleFunc("POST /dialogs/add/cancel", r.wrap(r.cancelAdd))

	mux.HandleFunc("POST /users/{id}/edit", r.wrap(r.openEdit))
	mux.HandleFunc("POST /dialogs/edit/submit", r.wrap(r.submitEdit))
	mux.HandleFunc("POST /dialogs/edit/cancel", r.wrap(r.cancelEdit))

	mux.HandleFunc("POST /users/{id}/delete", r.wrap(r.openDelete))
	mux.HandleFunc("POST /dialogs/delete/confirm", r.wrap(r.confirmDelete))
	mux.HandleFunc("POST /dialogs/delete/cancel", r.wrap(r.cancelDelete))

	mux.HandleFunc("GET /api/users", r.wrap(r.listUsers))
	mux.HandleFunc("GET /api/audit", r.panicMiddleware(r.loggingMiddleware(r.listAudit)))
	return nil
}

func (rtr *router) wrap(next http.HandlerFunc) http.HandlerFunc {
	return rtr.panicMiddleware(rtr.loggingMiddleware(rtr.sessionMiddleware(next)))
}

func (rtr *router) responseJSON(w http.ResponseWriter, statusCode int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		rtr.log.Error("failed to encode response", slog.Any("error", err))
	}
}
