package resolve

import (
	"testing"

	"github.com/hpungsan/rolodex/internal/person"
)

func TestDedupeMergesByEmail(t *testing.T) {
	in := []person.Candidate{
		{ID: "c1", SourceKind: person.SourceContact, FullName: "Priya Shah", Email: "priya@x.com", RecencyScore: 40, LinkedContactID: "c1"},
		{ID: "m1/0", SourceKind: person.SourceMeetingAttendee, FullName: "Priya Shah", Email: "PRIYA@x.com", RecencyScore: 90},
	}

	out := dedupe(in)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].ID != "m1/0" {
		t.Errorf("winner = %s, want the higher-scored meeting sighting", out[0].ID)
	}
	if out[0].LinkedContactID != "c1" {
		t.Error("linked contact ID should carry over from the merged CRM sighting")
	}
}

func TestDedupeKeysByNameWithoutEmail(t *testing.T) {
	in := []person.Candidate{
		{ID: "a", SourceKind: person.SourceMeetingAttendee, FullName: "John  Appleseed", RecencyScore: 50},
		{ID: "b", SourceKind: person.SourceCalendarAttendee, FullName: "john appleseed", RecencyScore: 30},
	}

	out := dedupe(in)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1: name keys normalize case and whitespace", len(out))
	}
	if out[0].ID != "a" {
		t.Errorf("winner = %s, want a", out[0].ID)
	}
}

func TestDedupeDistinctEmailsStaySeparate(t *testing.T) {
	// Same display name, different addresses: two different people.
	in := []person.Candidate{
		{ID: "a", SourceKind: person.SourceContact, FullName: "John Smith", Email: "john@acme.com", RecencyScore: 80},
		{ID: "b", SourceKind: person.SourceContact, FullName: "John Smith", Email: "john@globex.com", RecencyScore: 60},
	}

	out := dedupe(in)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
}

func TestDedupeTieBreak(t *testing.T) {
	contact := person.Candidate{ID: "z-contact", SourceKind: person.SourceContact, FullName: "Ana Ruiz", Email: "ana@x.com", RecencyScore: 70, LinkedContactID: "z-contact"}
	meeting := person.Candidate{ID: "a-meeting/0", SourceKind: person.SourceMeetingAttendee, FullName: "Ana Ruiz", Email: "ana@x.com", RecencyScore: 70}

	// Equal scores: the CRM sighting wins regardless of input order.
	for _, in := range [][]person.Candidate{{contact, meeting}, {meeting, contact}} {
		out := dedupe(in)
		if len(out) != 1 {
			t.Fatalf("len = %d, want 1", len(out))
		}
		if out[0].SourceKind != person.SourceContact {
			t.Errorf("winner source = %s, want contact", out[0].SourceKind)
		}
	}

	// Equal scores, neither CRM: smallest ID wins.
	m2 := meeting
	m2.ID = "b-meeting/1"
	m2.SourceKind = person.SourceCalendarAttendee
	for _, in := range [][]person.Candidate{{meeting, m2}, {m2, meeting}} {
		out := dedupe(in)
		if out[0].ID != "a-meeting/0" {
			t.Errorf("winner = %s, want a-meeting/0", out[0].ID)
		}
	}
}

func TestDedupeSortsByScoreThenID(t *testing.T) {
	in := []person.Candidate{
		{ID: "c", FullName: "C", Email: "c@x.com", RecencyScore: 50},
		{ID: "a", FullName: "A", Email: "a@x.com", RecencyScore: 90},
		{ID: "b", FullName: "B", Email: "b@x.com", RecencyScore: 90},
	}

	out := dedupe(in)
	ids := []string{out[0].ID, out[1].ID, out[2].ID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestDedupeEmpty(t *testing.T) {
	if out := dedupe(nil); len(out) != 0 {
		t.Errorf("dedupe(nil) = %v, want empty", out)
	}
}
