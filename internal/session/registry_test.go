package session

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return OpenWithDB(db), mock
}

func TestRegistryCreate(t *testing.T) {
	r, mock := newMockRegistry(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("sess-1", "chat", "/work", "claude-sonnet", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.Create(context.Background(), Session{
		ID: "sess-1", Kind: KindChat, WorkingDir: "/work", Model: "claude-sonnet",
		CreatedAt: now, LastActiveAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegistryGet(t *testing.T) {
	r, mock := newMockRegistry(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "kind", "working_dir", "model", "created_at", "last_active_at"}).
		AddRow("sess-1", "chat", "/work", "claude-sonnet", now, now)
	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id = ?").WithArgs("sess-1").WillReturnRows(rows)

	got, err := r.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "sess-1" || got.Kind != KindChat {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestRegistryIdleSince(t *testing.T) {
	r, mock := newMockRegistry(t)
	now := time.Now()
	cutoff := now.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{"id", "kind", "working_dir", "model", "created_at", "last_active_at"}).
		AddRow("sess-old", "agent", "/work", "gpt-4", now.Add(-2*time.Hour), now.Add(-2*time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE last_active_at < ?").WithArgs(cutoff).WillReturnRows(rows)

	idle, err := r.IdleSince(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("IdleSince: %v", err)
	}
	if len(idle) != 1 || idle[0].ID != "sess-old" {
		t.Fatalf("unexpected idle sessions: %+v", idle)
	}
}

func TestRegistryDelete(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectExec("DELETE FROM sessions WHERE id = ?").WithArgs("sess-1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.Delete(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
