package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

func (rtr *router) listUsers(w http.ResponseWriter, r *http.Request) {
	scr := screenFromCtx(r.Context())
	if err := scr.Load(r.Context()); err != nil {
		rtr.log.Debug("initial load failed", slog.Any("error", err))
	}
	view := scr.View()
	rtr.responseJSON(w, http.StatusOK, models.UsersResponse{
		Users: view.Users,
		Total: view.Total,
	})
}

func (rtr *router) listAudit(w http.ResponseWriter, r *http.Request) {
	if rtr.audit == nil {
		rtr.handleError(w, newResponseError(ErrCodeNotFound, "audit trail is disabled"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rtr.handleError(w, newResponseError(ErrCodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}
	entries, err := rtr.audit.Recent(r.Context(), limit)
	if err != nil {
		rtr.handleError(w, err)
		return
	}
	rtr.responseJSON(w, http.StatusOK, models.AuditResponse{Entries: entries})
}
