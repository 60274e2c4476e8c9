package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultMaxPoolSize     = 10
	defaultConnAttempts    = 10
	defaultConnTimeout     = time.Second
	defaultConnMaxLifetime = time.Hour
)

type Postgres struct {
	maxPoolSize     int
	connAttempts    int
	connTimeout     time.Duration
	connMaxLifetime time.Duration

	DB  *sql.DB
	log *slog.Logger
}

type Option func(*Postgres)

func WithMaxPoolSize(n int) Option {
	return func(p *Postgres) {
		if n > 0 {
			p.maxPoolSize = n
		}
	}
}

func WithConnAttempts(n int) Option {
	return func(p *Postgres) {
		if n > 0 {
			p.connAttempts = n
		}
	}
}

func WithConnTimeout(d time.Duration) Option {
	return func(p *Postgres) {
		if d > 0 {
			p.connTimeout = d
		}
	}
}

// New opens the pool and pings it, retrying until the attempts run out or
// ctx is done.
func New(ctx context.Context, dbURL string, log *slog.Logger, opts ...Option) (*Postgres, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	pg := &Postgres{
		maxPoolSize:     defaultMaxPoolSize,
		connAttempts:    defaultConnAttempts,
		connTimeout:     defaultConnTimeout,
		connMaxLifetime: defaultConnMaxLifetime,
		log:             log,
	}

	for _, opt := range opts {
		opt(pg)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetConnMaxLifetime(pg.connMaxLifetime)
	db.SetMaxOpenConns(pg.maxPoolSize)

	for attempts := pg.connAttempts; ; {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		attempts--
		if attempts <= 0 {
			db.Close()
			log.Error("failed to connect to database", slog.Any("error", err))
			return nil, fmt.Errorf("ping database: %w", err)
		}
		log.Info("postgres is trying to connect", slog.Int("attempts left", attempts))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(pg.connTimeout):
		}
	}

	pg.DB = db
	return pg, nil
}

func (p *Postgres) Close() {
	if p == nil || p.DB == nil {
		return
	}
	if err := p.DB.Close(); err != nil && p.log != nil {
		p.log.Error("failed to close database", slog.Any("error", err))
	}
}
