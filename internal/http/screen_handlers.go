package http

import (
	"log/slog"
	"net/http"

	"github.com/cloudyy74/frappe-user-admin/internal/screen"
)

func (rtr *router) index(w http.ResponseWriter, r *http.Request) {
	scr := screenFromCtx(r.Context())
	if err := scr.Load(r.Context()); err != nil {
		rtr.log.Debug("initial load failed", slog.Any("error", err))
	}
	rtr.render(w, "screen", newPage(scr))
}

// done ends a form post. Backend failures were already turned into notices
// by the screen, so only refused actions answer with an error.
func (rtr *router) done(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil && refused(err) {
		rtr.handleError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (rtr *router) refresh(w http.ResponseWriter, r *http.Request) {
	rtr.done(w, r, screenFromCtx(r.Context()).Refresh(r.Context()))
}

func (rtr *router) applyFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		rtr.handleError(w, newResponseError(ErrCodeBadRequest, "bad form request"))
		return
	}
	screenFromCtx(r.Context()).FilterBar().Apply(screen.Filters{
		Search: r.PostForm.Get("search"),
		Role:   r.PostForm.Get("role"),
		Status: r.PostForm.Get("status"),
	})
	rtr.done(w, r, nil)
}

func (rtr *router) clearFilters(w http.ResponseWriter, r *http.Request) {
	screenFromCtx(r.Context()).ClearFilters()
	rtr.done(w, r, nil)
}

func (rtr *router) sortBy(w http.ResponseWriter, r *http.Request) {
	rtr.done(w, r, screenFromCtx(r.Context()).SortBy(r.PostFormValue("column")))
}

func (rtr *router) openAdd(w http.ResponseWriter, r *http.Request) {
	rtr.done(w, r, screenFromCtx(r.Context()).OpenAdd())
}

func (rtr *router) submitAdd(w http.ResponseWriter, r *http.Request) {
	draft, err := draftFromForm(r)
	if err != nil {
		rtr.handleError(w, err)
		return
	}
	rtr.done(w, r, screenFromCtx(r.Context()).SubmitAdd(r.Context(), draft))
}

func (rtr *router) cancelAdd(w http.ResponseWriter, r *http.Request) {
	screenFromCtx(r.Context()).CancelAdd()
	rtr.done(w, r, nil)
}

func (rtr *router) openEdit(w http.ResponseWriter, r *http.Request) {
	rtr.done(w, r, screenFromCtx(r.Context()).OpenEdit(r.PathValue("id")))
}

func (rtr *router) submitEdit(w http.ResponseWriter, r *http.Request) {
	draft, err := draftFromForm(r)
	if err != nil {
		rtr.handleError(w, err)
		return
	}
	rtr.done(w, r, screenFromCtx(r.Context()).SubmitEdit(r.Context(), draft))
}

func (rtr *router) cancelEdit(w http.ResponseWriter, r *http.Request) {
	screenFromCtx(r.Context()).CancelEdit()
	rtr.done(w, r, nil)
}

func (rtr *router) openDelete(w http.ResponseWriter, r *http.Request) {
	rtr.done(w, r, screenFromCtx(r.Context()).OpenDelete(r.PathValue("id")))
}

func (rtr *router) confirmDelete(w http.ResponseWriter, r *http.Request) {
	rtr.done(w, r, screenFromCtx(r.Context()).ConfirmDelete(r.Context()))
}

func (rtr *router) cancelDelete(w http.ResponseWriter, r *http.Request) {
	screenFromCtx(r.Context()).CancelDelete()
	rtr.done(w, r, nil)
}

func draftFromForm(r *http.Request) (screen.Draft, error) {
	if err := r.ParseForm(); err != nil {
		return screen.Draft{}, newResponseError(ErrCodeBadRequest, "bad form request")
	}
	return screen.NewDraft(
		r.PostForm.Get("name"),
		r.PostForm.Get("email"),
		r.PostForm.Get("role"),
		r.PostForm.Get("status"),
	), nil
}
