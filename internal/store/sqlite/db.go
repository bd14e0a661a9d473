package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// open opens a SQLite database with the given DSN.
func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer, and an in-memory DSN is
	// scoped per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// migrate creates the client-side tables. Idempotent CREATE TABLE / CREATE
// INDEX statements; the layout mirrors the browser store the UI used before
// the daemon split (messages, conversations, profiles, identity, media).
func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			status TEXT NOT NULL,
			kind TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			media_mime TEXT,
			media_payload TEXT,
			media_alt TEXT,
			media_aspect REAL
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			participants TEXT NOT NULL,
			type TEXT NOT NULL,
			last_message_id TEXT,
			unread_count INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			peer_id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		);`,
		// Single-row device session; serialized identity is sealed before it
		// lands here.
		`CREATE TABLE IF NOT EXISTS identity (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			serialized BLOB NOT NULL,
			profile TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS media (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT '',
			blob BLOB NOT NULL,
			timestamp INTEGER NOT NULL,
			is_pending BOOLEAN NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_timestamp ON messages(conversation_id, timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_media_timestamp ON media(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_media_type ON media(type);`,
		`CREATE INDEX IF NOT EXISTS idx_media_pending ON media(is_pending);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
