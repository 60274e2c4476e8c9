package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
	"github.com/cloudyy74/frappe-user-admin/pkg/postgres"
)

type AuditStorage struct {
	db  *postgres.Postgres
	log *slog.Logger
}

func NewAuditStorage(db *postgres.Postgres, log *slog.Logger) (*AuditStorage, error) {
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &AuditStorage{
		db:  db,
		log: log,
	}, nil
}

func (s *AuditStorage) InsertEntry(ctx context.Context, e models.AuditEntry) (*models.AuditEntry, error) {
	exec := getQueryExecer(ctx, s.db.DB)
	err := exec.QueryRowContext(
		ctx,
		`
insert into audit_log (session_id, action, target, outcome, detail) values ($1, $2, $3, $4, $5)
returning id, created_at`,
		e.SessionID,
		string(e.Action),
		e.Target,
		string(e.Outcome),
		e.Detail,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		s.log.Error("failed to insert audit entry", slog.Any("error", err))
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}
	return &e, nil
}

func (s *AuditStorage) DeleteEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	exec := getExecer(ctx, s.db.DB)
	res, err := exec.ExecContext(
		ctx,
		`delete from audit_log where created_at < $1`,
		cutoff,
	)
	if err != nil {
		s.log.Error("failed to prune audit log", slog.Any("error", err))
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	return affected, nil
}

func (s *AuditStorage) GetRecentEntries(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	exec := getQueryExecer(ctx, s.db.DB)
	rows, err := exec.QueryContext(
		ctx,
		`
select id, session_id, action, target, outcome, detail, created_at
from audit_log
order by created_at desc, id desc
limit $1
`,
		limit,
	)
	if err != nil {
		s.log.Error("failed to get audit entries", slog.Any("error", err))
		return nil, fmt.Errorf("get audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditEntry, 0, limit)
	for rows.Next() {
		var (
			e       models.AuditEntry
			action  string
			outcome string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &action, &e.Target, &outcome, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("get audit entries: %w", err)
		}
		e.Action = models.AuditAction(action)
		e.Outcome = models.AuditOutcome(outcome)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get audit entries: %w", err)
	}

	return entries, nil
}
