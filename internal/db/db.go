package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/rolodex/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/rolodex.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.rolodex.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "rolodex.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort). The mail
	// account table holds access tokens.
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS contacts (
		  id         TEXT PRIMARY KEY,
		  first_name TEXT NOT NULL,
		  last_name  TEXT,
		  email      TEXT,
		  phone      TEXT,
		  company    TEXT,
		  title      TEXT,
		  notes_md   TEXT,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_contacts_first_name
		ON contacts(first_name COLLATE NOCASE, updated_at DESC);

		CREATE TABLE IF NOT EXISTS meetings (
		  id         TEXT PRIMARY KEY,
		  title      TEXT NOT NULL,
		  started_at INTEGER NOT NULL,
		  summary    TEXT,
		  transcript TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_meetings_started
		ON meetings(started_at DESC);

		CREATE TABLE IF NOT EXISTS meeting_attendees (
		  meeting_id TEXT NOT NULL REFERENCES meetings(id),
		  contact_id TEXT,
		  name       TEXT NOT NULL,
		  email      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_meeting_attendees_meeting
		ON meeting_attendees(meeting_id);

		CREATE INDEX IF NOT EXISTS idx_meeting_attendees_person
		ON meeting_attendees(contact_id, email);

		CREATE TABLE IF NOT EXISTS calendar_events (
		  id        TEXT PRIMARY KEY,
		  title     TEXT NOT NULL,
		  starts_at INTEGER NOT NULL,
		  location  TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_calendar_events_starts
		ON calendar_events(starts_at DESC);

		CREATE TABLE IF NOT EXISTS event_attendees (
		  event_id TEXT NOT NULL REFERENCES calendar_events(id),
		  name     TEXT,
		  email    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_event_attendees_event
		ON event_attendees(event_id);

		CREATE INDEX IF NOT EXISTS idx_event_attendees_email
		ON event_attendees(email);

		CREATE TABLE IF NOT EXISTS mail_accounts (
		  id           TEXT PRIMARY KEY,
		  provider     TEXT NOT NULL,
		  address      TEXT NOT NULL,
		  access_token TEXT NOT NULL,
		  status       TEXT NOT NULL,
		  expires_at   INTEGER NOT NULL DEFAULT 0
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
