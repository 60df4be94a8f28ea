// Package seed loads YAML fixture files and imports them into the local
// stores. Fixtures carry relative timestamps (days_ago) so a demo
// dataset stays fresh no matter when it is imported.
package seed

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/person"
)

// Fixture is the root of a seed file.
type Fixture struct {
	Contacts     []ContactFixture     `yaml:"contacts"`
	Meetings     []MeetingFixture     `yaml:"meetings"`
	Events       []EventFixture       `yaml:"events"`
	MailAccounts []MailAccountFixture `yaml:"mail_accounts"`
}

// ContactFixture describes one directory contact. ID is optional; a ULID
// is minted when absent.
type ContactFixture struct {
	ID        string  `yaml:"id"`
	FirstName string  `yaml:"first_name"`
	LastName  string  `yaml:"last_name"`
	Email     string  `yaml:"email"`
	Phone     string  `yaml:"phone"`
	Company   string  `yaml:"company"`
	Title     string  `yaml:"title"`
	NotesMD   string  `yaml:"notes_md"`
	DaysAgo   float64 `yaml:"days_ago"`
}

// MeetingFixture describes one recorded meeting.
type MeetingFixture struct {
	ID         string            `yaml:"id"`
	Title      string            `yaml:"title"`
	DaysAgo    float64           `yaml:"days_ago"`
	Summary    string            `yaml:"summary"`
	Transcript string            `yaml:"transcript"`
	Attendees  []AttendeeFixture `yaml:"attendees"`
}

// EventFixture describes one calendar event. Negative days_ago places the
// event in the future.
type EventFixture struct {
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	DaysAgo   float64           `yaml:"days_ago"`
	Location  string            `yaml:"location"`
	Attendees []AttendeeFixture `yaml:"attendees"`
}

// AttendeeFixture is a participant of a meeting or event.
type AttendeeFixture struct {
	ContactID string `yaml:"contact_id"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
}

// MailAccountFixture describes a mail provider integration.
type MailAccountFixture struct {
	ID          string  `yaml:"id"`
	Provider    string  `yaml:"provider"`
	Address     string  `yaml:"address"`
	AccessToken string  `yaml:"access_token"`
	Status      string  `yaml:"status"`
	ExpiresDays float64 `yaml:"expires_days"`
}

// Load parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Stats summarizes an import.
type Stats struct {
	Contacts     int
	Meetings     int
	Events       int
	MailAccounts int
}

// Import writes a fixture's records into the database, resolving relative
// timestamps against now and minting ULIDs for records without an ID.
func Import(ctx context.Context, database *sql.DB, f *Fixture, now time.Time) (*Stats, error) {
	stats := &Stats{}

	for _, cf := range f.Contacts {
		at := relativeUnix(now, cf.DaysAgo)
		c := &person.Contact{
			ID:        orULID(cf.ID),
			FirstName: cf.FirstName,
			LastName:  cf.LastName,
			Email:     cf.Email,
			Phone:     cf.Phone,
			Company:   cf.Company,
			Title:     cf.Title,
			NotesMD:   cf.NotesMD,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if c.FirstName == "" {
			return nil, fmt.Errorf("contact %q: first_name is required", c.ID)
		}
		if err := db.InsertContact(ctx, database, c); err != nil {
			return nil, fmt.Errorf("import contact %s: %w", c.FirstName, err)
		}
		stats.Contacts++
	}

	for _, mf := range f.Meetings {
		m := &person.Meeting{
			ID:         orULID(mf.ID),
			Title:      mf.Title,
			StartedAt:  relativeUnix(now, mf.DaysAgo),
			Summary:    mf.Summary,
			Transcript: mf.Transcript,
		}
		for _, af := range mf.Attendees {
			m.Attendees = append(m.Attendees, person.MeetingAttendee{
				MeetingID: m.ID,
				ContactID: af.ContactID,
				Name:      af.Name,
				Email:     af.Email,
			})
		}
		if err := db.InsertMeeting(ctx, database, m); err != nil {
			return nil, fmt.Errorf("import meeting %q: %w", m.Title, err)
		}
		stats.Meetings++
	}

	for _, ef := range f.Events {
		e := &person.CalendarEvent{
			ID:       orULID(ef.ID),
			Title:    ef.Title,
			StartsAt: relativeUnix(now, ef.DaysAgo),
			Location: ef.Location,
		}
		for _, af := range ef.Attendees {
			e.Attendees = append(e.Attendees, person.EventAttendee{
				EventID: e.ID,
				Name:    af.Name,
				Email:   af.Email,
			})
		}
		if err := db.InsertEvent(ctx, database, e); err != nil {
			return nil, fmt.Errorf("import event %q: %w", e.Title, err)
		}
		stats.Events++
	}

	for _, af := range f.MailAccounts {
		a := &person.MailAccount{
			ID:          orULID(af.ID),
			Provider:    af.Provider,
			Address:     af.Address,
			AccessToken: af.AccessToken,
			Status:      af.Status,
		}
		if a.Status == "" {
			a.Status = "active"
		}
		if af.ExpiresDays != 0 {
			a.ExpiresAt = relativeUnix(now, -af.ExpiresDays)
		}
		if err := db.UpsertMailAccount(ctx, database, a); err != nil {
			return nil, fmt.Errorf("import mail account %s: %w", a.Address, err)
		}
		stats.MailAccounts++
	}

	return stats, nil
}

// relativeUnix converts a days_ago offset into Unix seconds. Negative
// offsets land in the future.
func relativeUnix(now time.Time, daysAgo float64) int64 {
	return now.Add(-time.Duration(daysAgo * 24 * float64(time.Hour))).Unix()
}

// orULID returns id, minting a fresh ULID when empty.
func orULID(id string) string {
	if id != "" {
		return id
	}
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
