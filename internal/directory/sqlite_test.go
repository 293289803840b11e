package directory_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/anshu-man26/EngageSphere-sub001/internal/directory"
	_ "modernc.org/sqlite"
)

func newTestDirectory(t *testing.T) *directory.SQLiteDirectory {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	d, err := directory.NewSQLiteDirectory(db)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	return d
}

func TestGetUserContact(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	if err := d.UpsertUser(ctx, "u1", "alice@example.com", "Alice"); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	contact, err := d.GetUserContact(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserContact failed: %v", err)
	}
	if contact.Email != "alice@example.com" || contact.DisplayName != "Alice" {
		t.Errorf("unexpected contact: %+v", contact)
	}
}

func TestGetUserContactNotFound(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.GetUserContact(context.Background(), "missing")
	if !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertUserOverwrites(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	d.UpsertUser(ctx, "u1", "old@example.com", "Old Name")
	if err := d.UpsertUser(ctx, "u1", "new@example.com", "New Name"); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	contact, err := d.GetUserContact(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserContact failed: %v", err)
	}
	if contact.Email != "new@example.com" || contact.DisplayName != "New Name" {
		t.Errorf("expected updated contact, got %+v", contact)
	}
}
