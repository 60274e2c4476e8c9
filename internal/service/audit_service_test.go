package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

type fakeTx struct{}

func (fakeTx) Run(_ context.Context, fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

type fakeAuditRepo struct {
	insertFn func(context.Context, models.AuditEntry) (*models.AuditEntry, error)
	deleteFn func(context.Context, time.Time) (int64, error)
	recentFn func(context.Context, int) ([]*models.AuditEntry, error)
}

func (f *fakeAuditRepo) InsertEntry(ctx context.Context, e models.AuditEntry) (*models.AuditEntry, error) {
	return f.insertFn(ctx, e)
}

func (f *fakeAuditRepo) DeleteEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.deleteFn(ctx, cutoff)
}

func (f *fakeAuditRepo) GetRecentEntries(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	return f.recentFn(ctx, limit)
}

func auditTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditService(t *testing.T, repo AuditRepository) *AuditService {
	t.Helper()
	service, err := NewAuditService(fakeTx{}, repo, time.Hour, auditTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service
}

func TestNewAuditService_Validation(t *testing.T) {
	_, err := NewAuditService(nil, nil, 0, nil)
	if err == nil {
		t.Fatalf("expected error when dependencies are nil")
	}
}

func TestAuditService_Record_InsertsAndPrunes(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	var (
		inserted models.AuditEntry
		cutoff   time.Time
	)
	repo := &fakeAuditRepo{
		insertFn: func(_ context.Context, e models.AuditEntry) (*models.AuditEntry, error) {
			inserted = e
			e.ID = 1
			return &e, nil
		},
		deleteFn: func(_ context.Context, c time.Time) (int64, error) {
			cutoff = c
			return 3, nil
		},
	}
	service := newTestAuditService(t, repo)
	service.now = func() time.Time { return now }

	err := service.Record(context.Background(), models.AuditEntry{
		SessionID: "s1",
		Action:    models.AuditUpdate,
		Target:    " b@x.com ",
		Outcome:   models.AuditSuccess,
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if inserted.Target != "b@x.com" || inserted.Action != models.AuditUpdate {
		t.Fatalf("unexpected entry inserted: %#v", inserted)
	}
	if !cutoff.Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected cutoff: %v", cutoff)
	}
}

func TestAuditService_Record_Validation(t *testing.T) {
	service := newTestAuditService(t, &fakeAuditRepo{})
	err := service.Record(context.Background(), models.AuditEntry{Outcome: models.AuditSuccess})
	if !errors.Is(err, ErrAuditValidation) {
		t.Fatalf("expected ErrAuditValidation, got %v", err)
	}
	err = service.Record(context.Background(), models.AuditEntry{Action: models.AuditList})
	if !errors.Is(err, ErrAuditValidation) {
		t.Fatalf("expected ErrAuditValidation, got %v", err)
	}
}

func TestAuditService_Record_InsertError(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &fakeAuditRepo{
		insertFn: func(context.Context, models.AuditEntry) (*models.AuditEntry, error) {
			return nil, dbErr
		},
		deleteFn: func(context.Context, time.Time) (int64, error) {
			t.Fatalf("prune must not run after a failed insert")
			return 0, nil
		},
	}
	service := newTestAuditService(t, repo)
	err := service.Record(context.Background(), models.AuditEntry{Action: models.AuditDelete, Outcome: models.AuditFailure})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestAuditService_Recent_Limits(t *testing.T) {
	var got []int
	repo := &fakeAuditRepo{
		recentFn: func(_ context.Context, limit int) ([]*models.AuditEntry, error) {
			got = append(got, limit)
			return []*models.AuditEntry{}, nil
		},
	}
	service := newTestAuditService(t, repo)
	for _, limit := range []int{0, -1, 10, 10000} {
		if _, err := service.Recent(context.Background(), limit); err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
	}
	want := []int{defaultRecentLimit, defaultRecentLimit, 10, maxRecentLimit}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("limit %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestAuditService_Recent_Error(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &fakeAuditRepo{
		recentFn: func(context.Context, int) ([]*models.AuditEntry, error) {
			return nil, dbErr
		},
	}
	service := newTestAuditService(t, repo)
	if _, err := service.Recent(context.Background(), 5); !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
