package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
	"github.com/cloudyy74/frappe-user-admin/pkg/postgres"
)

func newAuditStorage(t *testing.T) (*AuditStorage, *TxManagerSQL, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pg := &postgres.Postgres{
		DB: db,
	}

	st, err := NewAuditStorage(pg, log)
	if err != nil {
		t.Fatalf("NewAuditStorage: %v", err)
	}
	tx, err := NewTxManager(pg, log)
	if err != nil {
		t.Fatalf("NewTxManager: %v", err)
	}
	return st, tx, mock
}

func TestNewAuditStorage_Validation(t *testing.T) {
	if _, err := NewAuditStorage(nil, nil); err == nil {
		t.Fatalf("expected error for nil dependencies")
	}
	if _, err := NewTxManager(nil, nil); err == nil {
		t.Fatalf("expected error for nil dependencies")
	}
}

func TestAuditStorage_InsertEntry(t *testing.T) {
	st, _, mock := newAuditStorage(t)
	createdAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("insert into audit_log (session_id, action, target, outcome, detail)")).
		WithArgs("s1", "delete", "a@x.com", "failure", "PermissionError").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))

	entry, err := st.InsertEntry(context.Background(), models.AuditEntry{
		SessionID: "s1",
		Action:    models.AuditDelete,
		Target:    "a@x.com",
		Outcome:   models.AuditFailure,
		Detail:    "PermissionError",
	})
	if err != nil {
		t.Fatalf("InsertEntry returned err: %v", err)
	}
	if entry.ID != 7 || !entry.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	verifyExpectations(t, mock)
}

func TestAuditStorage_InsertEntry_Error(t *testing.T) {
	st, _, mock := newAuditStorage(t)
	dbErr := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("insert into audit_log")).
		WillReturnError(dbErr)

	_, err := st.InsertEntry(context.Background(), models.AuditEntry{Action: models.AuditList})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	verifyExpectations(t, mock)
}

func TestAuditStorage_DeleteEntriesBefore(t *testing.T) {
	st, _, mock := newAuditStorage(t)
	cutoff := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("delete from audit_log where created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := st.DeleteEntriesBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteEntriesBefore returned err: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 deleted rows, got %d", n)
	}
	verifyExpectations(t, mock)
}

func TestAuditStorage_GetRecentEntries(t *testing.T) {
	st, _, mock := newAuditStorage(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "session_id", "action", "target", "outcome", "detail", "created_at"}).
		AddRow(int64(2), "s1", "update", "b@x.com", "stale", "", now).
		AddRow(int64(1), "s1", "list", "list", "success", "", now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("select id, session_id, action, target, outcome, detail, created_at")).
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := st.GetRecentEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetRecentEntries returned err: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 2 || entries[0].Outcome != models.AuditStale || entries[1].Action != models.AuditList {
		t.Fatalf("unexpected entries: %#v", entries)
	}
	verifyExpectations(t, mock)
}

func TestAuditStorage_GetRecentEntries_Empty(t *testing.T) {
	st, _, mock := newAuditStorage(t)
	mock.ExpectQuery(regexp.QuoteMeta("select id, session_id, action, target, outcome, detail, created_at")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "action", "target", "outcome", "detail", "created_at"}))

	entries, err := st.GetRecentEntries(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetRecentEntries returned err: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty slice, got %#v", entries)
	}
	verifyExpectations(t, mock)
}

func TestTxManager_CommitsInsertAndPrune(t *testing.T) {
	st, tx, mock := newAuditStorage(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("insert into audit_log")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("delete from audit_log")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := tx.Run(context.Background(), func(ctx context.Context) error {
		if _, ok := TxFromCtx(ctx); !ok {
			t.Fatalf("expected transaction in context")
		}
		if _, err := st.InsertEntry(ctx, models.AuditEntry{Action: models.AuditCreate}); err != nil {
			return err
		}
		_, err := st.DeleteEntriesBefore(ctx, time.Now().Add(-time.Hour))
		return err
	})
	if err != nil {
		t.Fatalf("Run returned err: %v", err)
	}
	verifyExpectations(t, mock)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	_, tx, mock := newAuditStorage(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	fnErr := errors.New("boom")
	err := tx.Run(context.Background(), func(context.Context) error { return fnErr })
	if !errors.Is(err, fnErr) {
		t.Fatalf("expected fn error, got %v", err)
	}
	verifyExpectations(t, mock)
}

func verifyExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
