package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpungsan/rolodex/internal/db"
)

const fixtureYAML = `
contacts:
  - first_name: Priya
    last_name: Shah
    email: priya@x.com
    company: Acme
    days_ago: 2
  - id: c-john
    first_name: John
    last_name: Appleseed
    email: john@acme.com

meetings:
  - title: Q3 planning
    days_ago: 3
    summary: Roadmap discussion
    attendees:
      - contact_id: c-john
        name: John Appleseed
        email: john@acme.com

events:
  - title: Design review
    days_ago: -2
    location: Room 4
    attendees:
      - email: priya@x.com

mail_accounts:
  - provider: gmail
    address: me@example.com
    access_token: tok-abc
`

func TestLoadAndImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(f.Contacts) != 2 || len(f.Meetings) != 1 || len(f.Events) != 1 || len(f.MailAccounts) != 1 {
		t.Fatalf("unexpected fixture shape: %+v", f)
	}

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	defer database.Close()

	now := time.Unix(1_750_000_000, 0)
	stats, err := Import(context.Background(), database, f, now)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Contacts != 2 || stats.Meetings != 1 || stats.Events != 1 || stats.MailAccounts != 1 {
		t.Errorf("stats = %+v", stats)
	}

	ctx := context.Background()

	// Explicit ID is kept, missing IDs are minted as ULIDs.
	c, err := db.ContactByID(ctx, database, "c-john")
	if err != nil {
		t.Fatalf("explicit contact ID not preserved: %v", err)
	}
	if c.Email != "john@acme.com" {
		t.Errorf("Email = %q", c.Email)
	}

	contacts, total, err := db.ListContacts(ctx, database, "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	for _, c := range contacts {
		if c.ID == "" {
			t.Error("contact imported without an ID")
		}
	}

	// days_ago resolves against the supplied clock.
	meetings, err := db.MeetingsSince(ctx, database, now.Unix()-4*24*60*60, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(meetings) != 1 {
		t.Fatalf("meetings = %d, want 1", len(meetings))
	}
	if len(meetings[0].Attendees) != 1 || meetings[0].Attendees[0].ContactID != "c-john" {
		t.Errorf("attendees = %+v", meetings[0].Attendees)
	}

	// Negative days_ago lands in the future.
	events, err := db.EventsBetween(ctx, database, now.Unix(), now.Unix()+7*24*60*60, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("future events = %d, want 1", len(events))
	}

	// Mail account defaults to active.
	account, err := db.ActiveMailAccount(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if account == nil || account.AccessToken != "tok-abc" {
		t.Errorf("account = %+v", account)
	}
}

func TestImportRejectsNamelessContact(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	f := &Fixture{Contacts: []ContactFixture{{Email: "x@y.com"}}}
	if _, err := Import(context.Background(), database, f, time.Now()); err == nil {
		t.Error("Import should reject a contact without a first name")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load should fail on a missing file")
	}
}
