package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cloudyy74/frappe-user-admin/internal/screen"
)

type screenCtxKey struct{}

func withScreen(ctx context.Context, scr *screen.Screen) context.Context {
	return context.WithValue(ctx, screenCtxKey{}, scr)
}

func screenFromCtx(ctx context.Context) *screen.Screen {
	scr, _ := ctx.Value(screenCtxKey{}).(*screen.Screen)
	return scr
}

func (rtr *router) panicMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				rtr.log.Error("panic recovered",
					"error", err,
					"stack", debug.Stack(),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (rtr *router) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		rtr.log.Info("request",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// sessionMiddleware resolves the caller's screen from the session cookie,
// starting a new session when the cookie is missing or has expired.
func (rtr *router) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(rtr.cookieName); err == nil {
			id = c.Value
		}
		scr, created, err := rtr.sessions.Get(id)
		if err != nil {
			rtr.log.Error("failed to resolve session", slog.Any("error", err))
			rtr.handleError(w, newInternalError("session unavailable"))
			return
		}
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     rtr.cookieName,
				Value:    scr.SessionID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(withScreen(r.Context(), scr)))
	})
}
