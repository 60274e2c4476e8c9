package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
	defaultRetention   = 30 * 24 * time.Hour
)

var ErrAuditValidation = errors.New("validation error")

type AuditRepository interface {
	InsertEntry(context.Context, models.AuditEntry) (*models.AuditEntry, error)
	DeleteEntriesBefore(context.Context, time.Time) (int64, error)
	GetRecentEntries(context.Context, int) ([]*models.AuditEntry, error)
}

type AuditService struct {
	tx        txManager
	entries   AuditRepository
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewAuditService(tx txManager, entries AuditRepository, retention time.Duration, log *slog.Logger) (*AuditService, error) {
	if tx == nil {
		return nil, errors.New("tx manager cannot be nil")
	}
	if entries == nil {
		return nil, errors.New("audit repository cannot be nil")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	return &AuditService{
		tx:        tx,
		entries:   entries,
		retention: retention,
		now:       time.Now,
		log:       log,
	}, nil
}

// Record stores entry and prunes entries older than the retention window
// in the same transaction.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) error {
	entry.Target = strings.TrimSpace(entry.Target)
	if entry.Action == "" {
		return fmt.Errorf("%w: action is required", ErrAuditValidation)
	}
	if entry.Outcome == "" {
		return fmt.Errorf("%w: outcome is required", ErrAuditValidation)
	}

	cutoff := s.now().Add(-s.retention)
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.entries.InsertEntry(ctx, entry); err != nil {
			return err
		}
		pruned, err := s.entries.DeleteEntriesBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if pruned > 0 {
			s.log.Debug("pruned audit log", slog.Int64("rows", pruned))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. A non-positive limit means the
// default, and limits above the maximum are capped.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}
	entries, err := s.entries.GetRecentEntries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent audit entries: %w", err)
	}
	return entries, nil
}
