package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cloudyy74/frappe-user-admin/internal/config"
	"github.com/cloudyy74/frappe-user-admin/internal/frappe"
	router "github.com/cloudyy74/frappe-user-admin/internal/http"
	"github.com/cloudyy74/frappe-user-admin/internal/metrics"
	"github.com/cloudyy74/frappe-user-admin/internal/screen"
	"github.com/cloudyy74/frappe-user-admin/internal/service"
	"github.com/cloudyy74/frappe-user-admin/internal/session"
	"github.com/cloudyy74/frappe-user-admin/internal/storage"
	"github.com/cloudyy74/frappe-user-admin/pkg/postgres"
)

type App struct {
	httpServer *http.Server
	addr       string
	database   *postgres.Postgres
	log        *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}

	m := metrics.New()
	client, err := frappe.NewClient(frappe.Options{
		BaseURL:    cfg.Frappe.URL,
		APIKey:     cfg.Frappe.APIKey,
		APISecret:  cfg.Frappe.APISecret,
		PageLength: cfg.Frappe.PageLength,
		Timeout:    cfg.Frappe.RequestTimeout(),
		Recorder:   m,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create frappe client: %w", err)
	}
	if cfg.Frappe.Username != "" {
		if err := client.Login(ctx, cfg.Frappe.Username, cfg.Frappe.Password); err != nil {
			return nil, fmt.Errorf("failed to log in to frappe: %w", err)
		}
		log.Info("logged in to frappe", slog.String("user", cfg.Frappe.Username))
	}

	var (
		database *postgres.Postgres
		auditor  screen.Auditor
		audit    router.AuditService
	)
	if cfg.DBURL != "" {
		database, err = postgres.New(ctx, cfg.DBURL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		auditService, err := newAuditService(database, cfg.Audit, log)
		if err != nil {
			database.Close()
			return nil, err
		}
		auditor, audit = auditService, auditService
	} else {
		log.Info("db_url is not set, audit trail is disabled")
	}

	opts := []screen.Option{screen.WithRecorder(m)}
	if auditor != nil {
		opts = append(opts, screen.WithAuditor(auditor))
	}
	sessions, err := session.NewStore(cfg.Sessions.Max, func(id string) (*screen.Screen, error) {
		return screen.New(id, client, log, opts...)
	}, m, log)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	mux := http.NewServeMux()
	if err := router.SetupRouter(mux, sessions, audit, m.Handler(), cfg.Sessions.CookieName, log); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Timeout,
		ReadTimeout:       cfg.Timeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return &App{
		httpServer: httpServer,
		addr:       cfg.Addr,
		database:   database,
		log:        log,
	}, nil
}

func newAuditService(database *postgres.Postgres, cfg config.Audit, log *slog.Logger) (*service.AuditService, error) {
	auditStorage, err := storage.NewAuditStorage(database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit storage: %w", err)
	}
	txManager, err := storage.NewTxManager(database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create tx manager: %w", err)
	}
	auditService, err := service.NewAuditService(txManager, auditStorage, cfg.Retention, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit service: %w", err)
	}
	return auditService, nil
}

func (a *App) Run() error {
	a.log.Info("starting http server", slog.String("addr", a.addr))
	return a.httpServer.ListenAndServe()
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error("failed to run http server", slog.Any("error", err))
		panic(err)
	}
}

func (a *App) Close(ctx context.Context) {
	a.log.Info("trying to shutdown server")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Warn("failed to close http server", slog.Any("error", err))
	}
	a.database.Close()
}
