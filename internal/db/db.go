package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the database and applies migrations.
func Connect(ctx context.Context, dsn string, log *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database migrations applied", "count", len(migrations))

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS local_author (
            singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
            id BYTEA NOT NULL,
            format_version INT NOT NULL,
            name TEXT NOT NULL,
            public_key BYTEA NOT NULL,
            private_key BYTEA NOT NULL,
            handshake_public_key BYTEA NOT NULL,
            handshake_private_key BYTEA NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS contacts (
            id SERIAL PRIMARY KEY,
            author_id BYTEA NOT NULL UNIQUE,
            author_format_version INT NOT NULL,
            author_name TEXT NOT NULL,
            author_public_key BYTEA NOT NULL,
            local_author_id BYTEA NOT NULL,
            verified BOOLEAN NOT NULL DEFAULT FALSE,
            alias TEXT NULL,
            handshake_public_key BYTEA NULL UNIQUE,
            group_id BYTEA NOT NULL UNIQUE
        );`,
	`CREATE TABLE IF NOT EXISTS pending_contacts (
            id BYTEA PRIMARY KEY,
            alias TEXT NOT NULL,
            public_key BYTEA NOT NULL UNIQUE,
            state INT NOT NULL,
            created_at BIGINT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS messages (
            id BYTEA PRIMARY KEY,
            contact_id INT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
            kind TEXT NOT NULL,
            group_id BYTEA NOT NULL,
            timestamp BIGINT NOT NULL,
            local BOOLEAN NOT NULL,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            sent BOOLEAN NOT NULL DEFAULT FALSE,
            seen BOOLEAN NOT NULL DEFAULT FALSE,
            text TEXT NULL,
            has_text BOOLEAN NOT NULL DEFAULT FALSE,
            session_id BYTEA NULL,
            name TEXT NULL,
            answered BOOLEAN NOT NULL DEFAULT FALSE,
            accepted BOOLEAN NOT NULL DEFAULT FALSE,
            can_be_opened BOOLEAN NOT NULL DEFAULT FALSE,
            already_contact BOOLEAN NOT NULL DEFAULT FALSE,
            introducer BOOLEAN NOT NULL DEFAULT FALSE,
            shareable_id BYTEA NULL,
            session_active BOOLEAN NOT NULL DEFAULT FALSE,
            introduced_author_id BYTEA NULL,
            introduced_author_format_version INT NULL,
            introduced_author_name TEXT NULL,
            introduced_author_public_key BYTEA NULL
        );`,
	`CREATE INDEX IF NOT EXISTS messages_contact_timestamp_idx ON messages (contact_id, timestamp);`,
	`CREATE TABLE IF NOT EXISTS forums (
            id BYTEA PRIMARY KEY,
            name TEXT NOT NULL,
            salt BYTEA NOT NULL,
            created_at BIGINT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
            id BYTEA PRIMARY KEY,
            group_id BYTEA NOT NULL,
            parent_id BYTEA NULL,
            type INT NOT NULL,
            timestamp BIGINT NOT NULL,
            time_received BIGINT NOT NULL,
            author_id BYTEA NOT NULL,
            author_format_version INT NOT NULL,
            author_name TEXT NOT NULL,
            author_public_key BYTEA NOT NULL,
            rss_feed BOOLEAN NOT NULL DEFAULT FALSE,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            text TEXT NOT NULL
        );`,
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
