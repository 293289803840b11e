package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// SQLiteDirectory reads contacts from the users table.
type SQLiteDirectory struct {
	db *sql.DB
}

func NewSQLiteDirectory(db *sql.DB) (*SQLiteDirectory, error) {
	d := &SQLiteDirectory{db: db}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

var _ Directory = (*SQLiteDirectory)(nil)

func (d *SQLiteDirectory) init() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL,
			display_name TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (d *SQLiteDirectory) GetUserContact(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	err := d.db.QueryRowContext(ctx,
		"SELECT email, display_name FROM users WHERE id = ?", userID,
	).Scan(&c.Email, &c.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, fmt.Errorf("failed to look up user %s: %w", userID, err)
	}
	return c, nil
}

// UpsertUser writes a contact row. Used by operator tooling and tests; the
// product's account service owns these rows in production.
func (d *SQLiteDirectory) UpsertUser(ctx context.Context, userID, email, displayName string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, display_name = excluded.display_name`,
		userID, email, displayName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", userID, err)
	}
	return nil
}
