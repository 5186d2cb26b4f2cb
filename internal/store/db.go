// Package store owns the single embedded SQLite database that is the
// derived index for every user's vault: note metadata, the contentless
// full-text index, tags, the wikilink graph, and per-user health counters.
// It is the exclusive writer of index rows (spec.md §3 Ownership).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a SQLite connection configured for WAL mode. Grounded on the
// teacher's internal/store/db.go (OpenPath/OpenMemory/migrate shape).
type DB struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Open opens or creates the database at path, in WAL mode with a busy
// timeout, and runs migrations.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database, for tests.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite3", "file::memory:?cache=shared&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1) // cache=shared: every open of this name in the process sees the same DB; pin to one connection
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying *sql.DB for the Indexer's transaction scope.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	baseline := []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS note_metadata (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			note_path TEXT NOT NULL,
			version INTEGER NOT NULL,
			title TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			created INTEGER NOT NULL,
			updated INTEGER NOT NULL,
			normalized_title_slug TEXT NOT NULL,
			normalized_path_slug TEXT NOT NULL,
			content_hash TEXT NOT NULL DEFAULT '',
			UNIQUE(user_id, note_path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_metadata_user_title_slug ON note_metadata(user_id, normalized_title_slug)`,
		`CREATE INDEX IF NOT EXISTS idx_note_metadata_user_path_slug ON note_metadata(user_id, normalized_path_slug)`,
		`CREATE INDEX IF NOT EXISTS idx_note_metadata_user_updated ON note_metadata(user_id, updated)`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS note_fts USING fts5(
			user_id UNINDEXED,
			note_path UNINDEXED,
			title,
			body,
			content='',
			contentless_delete=1,
			tokenize='porter unicode61 remove_diacritics 2',
			prefix='2 3'
		)`,

		`CREATE TABLE IF NOT EXISTS note_tags (
			user_id TEXT NOT NULL,
			note_path TEXT NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (user_id, note_path, tag)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_tags_user_tag ON note_tags(user_id, tag)`,

		`CREATE TABLE IF NOT EXISTS note_links (
			user_id TEXT NOT NULL,
			source_path TEXT NOT NULL,
			link_text TEXT NOT NULL,
			target_path TEXT,
			is_resolved INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, source_path, link_text)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_links_target ON note_links(user_id, target_path)`,
		`CREATE INDEX IF NOT EXISTS idx_note_links_source ON note_links(user_id, source_path)`,

		`CREATE TABLE IF NOT EXISTS index_health (
			user_id TEXT PRIMARY KEY,
			note_count INTEGER NOT NULL DEFAULT 0,
			last_full_rebuild INTEGER NOT NULL DEFAULT 0,
			last_incremental_update INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range baseline {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}

	currentVersion := db.SchemaVersion()
	versioned := []struct {
		version int
		fn      func() error
	}{
		{1, func() error { return nil }}, // baseline above
	}
	for _, m := range versioned {
		if currentVersion < m.version {
			if err := m.fn(); err != nil {
				return fmt.Errorf("migration v%d: %w", m.version, err)
			}
			if err := db.SetMeta("schema_version", strconv.Itoa(m.version)); err != nil {
				return fmt.Errorf("record migration v%d: %w", m.version, err)
			}
		}
	}
	return nil
}

// SchemaVersion returns the current schema version (0 if unset).
func (db *DB) SchemaVersion() int {
	v, ok := db.GetMeta("schema_version")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// GetMeta reads schema_meta[key].
func (db *DB) GetMeta(key string) (string, bool) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM schema_meta WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// SetMeta upserts schema_meta[key].
func (db *DB) SetMeta(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		`INSERT INTO schema_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// IntegrityCheck runs SQLite's PRAGMA integrity_check.
func (db *DB) IntegrityCheck() error {
	var result string
	if err := db.conn.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
