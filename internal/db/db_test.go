package db

import (
	"path/filepath"
	"testing"

	"github.com/hpungsan/rolodex/internal/config"
)

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInitIdempotent(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	database.Close()

	// Re-opening an existing database must not re-run migration 1
	database, err = Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInitCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	dbPath := filepath.Join(tmpDir, "rolodex.db")
	var name string
	if err := database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='contacts'").Scan(&name); err != nil {
		t.Fatalf("contacts table missing (%s): %v", dbPath, err)
	}
}

func TestConfigurePool(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	// nil config and zero values must be no-ops
	ConfigurePool(database, nil)
	ConfigurePool(database, &config.Config{})
	ConfigurePool(database, &config.Config{DBMaxOpenConns: 1, DBMaxIdleConns: 1})

	var one int
	if err := database.QueryRow("SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query after pool config failed: %v", err)
	}
}
