// Package postgres implements the store driver on PostgreSQL with pgvector.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database using the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database with dsn")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) AuditStore() store.AuditStore {
	return d
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema if it does not exist. The vector column
// dimensionality follows the configured embedding model.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS "user" (
			id SERIAL PRIMARY KEY,
			display_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS channel (
			id SERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			member_ids INTEGER[] NOT NULL,
			last_message_text TEXT NOT NULL DEFAULT '',
			last_message_ts BIGINT NOT NULL DEFAULT 0,
			created_ts BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			id TEXT PRIMARY KEY,
			channel_id INTEGER NOT NULL REFERENCES channel(id),
			sender_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_channel ON message(channel_id, created_ts DESC)`,
		`CREATE TABLE IF NOT EXISTS calendar_entry (
			id SERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			owner_id INTEGER NOT NULL,
			subject_id INTEGER,
			title TEXT NOT NULL,
			start_ts BIGINT NOT NULL,
			end_ts BIGINT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calendar_owner_start ON calendar_entry(owner_id, start_ts)`,
		`CREATE TABLE IF NOT EXISTS reminder (
			id SERIAL PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			subject_id INTEGER,
			text TEXT NOT NULL,
			due_ts BIGINT NOT NULL,
			status TEXT NOT NULL,
			created_ts BIGINT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS message_embedding (
			message_id TEXT NOT NULL,
			channel_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			member_ids INTEGER[] NOT NULL,
			text TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			model TEXT NOT NULL,
			created_ts BIGINT NOT NULL,
			PRIMARY KEY (message_id, model)
		)`, d.profile.EmbeddingDimensions),
		`CREATE TABLE IF NOT EXISTS audit_log (
			id BIGSERIAL PRIMARY KEY,
			actor_id INTEGER NOT NULL,
			function_name TEXT NOT NULL,
			parameters TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT,
			conversation_id TEXT,
			created_ts BIGINT NOT NULL,
			executed_ts BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_log(actor_id, created_ts DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to run migration")
		}
	}
	return nil
}

// placeholder returns the positional parameter for the given 1-based index.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
