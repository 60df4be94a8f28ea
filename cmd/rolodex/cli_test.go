package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/person"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// captureStdout runs fn while capturing everything written to stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String(), runErr
}

func seedCLIContact(t *testing.T, database *sql.DB, id, first, last, email string) {
	t.Helper()
	now := time.Now().Unix()
	err := db.InsertContact(context.Background(), database, &person.Contact{
		ID: id, FirstName: first, LastName: last, Email: email,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed contact: %v", err)
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"rolodex"}, false},
		{[]string{"rolodex", "resolve", "priya"}, true},
		{[]string{"rolodex", "contacts"}, true},
		{[]string{"rolodex", "seed", "f.yaml"}, true},
		{[]string{"rolodex", "web"}, true},
		{[]string{"rolodex", "--help"}, true},
		{[]string{"rolodex", "--version"}, true},
		{[]string{"rolodex", "bogus"}, false},
	}

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestResolveCommand(t *testing.T) {
	database := setupTestDB(t)
	seedCLIContact(t, database, "c-priya", "Priya", "Shah", "priya@x.com")

	app := newCLIApp(database, config.DefaultConfig())

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "resolve", "Priya"})
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	var result person.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !result.Resolved || result.Contact == nil || result.Contact.FullName != "Priya Shah" {
		t.Errorf("result = %+v", result)
	}
}

func TestResolveCommandMultiWordName(t *testing.T) {
	database := setupTestDB(t)
	seedCLIContact(t, database, "c-priya", "Priya", "Shah", "priya@x.com")
	seedCLIContact(t, database, "c-other", "Priya", "Kumar", "pk@x.com")

	app := newCLIApp(database, config.DefaultConfig())

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "resolve", "Priya", "Shah"})
	})
	if err != nil {
		t.Fatal(err)
	}

	var result person.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	// The last name narrows the directory lookup to one person.
	if result.SearchSummary.TotalCandidates != 1 {
		t.Errorf("TotalCandidates = %d, want 1", result.SearchSummary.TotalCandidates)
	}
	if result.SearchSummary.NameSearched != "Priya Shah" {
		t.Errorf("NameSearched = %q", result.SearchSummary.NameSearched)
	}
}

func TestResolveCommandRequiresName(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "resolve"})
	})
	if err == nil {
		t.Fatal("resolve without a name should fail")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("error = %v", err)
	}
}

func TestEnrichCommand(t *testing.T) {
	database := setupTestDB(t)
	seedCLIContact(t, database, "c-1", "Dana", "Wu", "dana@remote.io")

	app := newCLIApp(database, config.DefaultConfig())

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "enrich", "--contact-id=c-1"})
	})
	if err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	var candidate person.Candidate
	if err := json.Unmarshal([]byte(out), &candidate); err != nil {
		t.Fatal(err)
	}
	if candidate.FullName != "Dana Wu" {
		t.Errorf("FullName = %q", candidate.FullName)
	}
	if candidate.RecentInteractions == nil {
		t.Error("RecentInteractions should be non-nil after enrichment")
	}
}

func TestEnrichCommandRequiresIdentity(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "enrich"})
	})
	if err == nil {
		t.Fatal("enrich without contact-id or email should fail")
	}
}

func TestContactsCommand(t *testing.T) {
	database := setupTestDB(t)
	seedCLIContact(t, database, "c-1", "Priya", "Shah", "priya@acme.com")
	seedCLIContact(t, database, "c-2", "John", "Appleseed", "john@globex.com")

	app := newCLIApp(database, config.DefaultConfig())

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "contacts", "--filter=acme"})
	})
	if err != nil {
		t.Fatalf("contacts failed: %v", err)
	}

	var result struct {
		Contacts []person.Contact `json:"contacts"`
		Total    int              `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || len(result.Contacts) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestContactsCommandRejectsBadLimit(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "contacts", "--limit=0"})
	})
	if err == nil {
		t.Fatal("limit 0 should fail")
	}
}

func TestSeedCommand(t *testing.T) {
	database := setupTestDB(t)

	fixture := `
contacts:
  - first_name: Maria
    last_name: Lopez
    email: maria@x.com
    days_ago: 1
meetings:
  - title: Standup
    days_ago: 1
    attendees:
      - name: Maria Lopez
        email: maria@x.com
`
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}

	app := newCLIApp(database, config.DefaultConfig())

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "seed", path})
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var stats map[string]int
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatal(err)
	}
	if stats["contacts"] != 1 || stats["meetings"] != 1 {
		t.Errorf("stats = %v", stats)
	}

	// The seeded person is now resolvable.
	out, err = captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "resolve", "Maria"})
	})
	if err != nil {
		t.Fatal(err)
	}
	var result person.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Resolved {
		t.Errorf("seeded contact did not resolve: %+v", result)
	}
}

func TestSeedCommandMissingPath(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"rolodex", "seed"})
	})
	if err == nil {
		t.Fatal("seed without a path should fail")
	}
}
