package person

// Store row types for the local directory, meeting, calendar, and mail
// account tables. Timestamps are Unix seconds throughout.

// Contact is a row in the contacts directory.
type Contact struct {
	// ID is a ULID that uniquely identifies this contact
	ID string

	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Title     string

	// NotesMD is free-form markdown shown by the web viewer
	NotesMD string

	CreatedAt int64
	UpdatedAt int64
}

// FullName joins the first and last name, tolerating a missing last name.
func (c *Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Meeting is a recorded meeting with an attendee list.
type Meeting struct {
	ID        string
	Title     string
	StartedAt int64

	// Summary is a stored recap; preferred over the transcript for snippets
	Summary string

	// Transcript is the raw transcript text (may be long)
	Transcript string

	Attendees []MeetingAttendee
}

// MeetingAttendee is one participant of a meeting.
type MeetingAttendee struct {
	MeetingID string

	// ContactID links the attendee to a directory contact when known
	ContactID string

	Name  string
	Email string
}

// CalendarEvent is a scheduled event with an attendee list.
type CalendarEvent struct {
	ID       string
	Title    string
	StartsAt int64
	Location string

	Attendees []EventAttendee
}

// EventAttendee is one invitee of a calendar event. Name may be empty;
// the adapter derives a display name from the email local-part.
type EventAttendee struct {
	EventID string
	Name    string
	Email   string
}

// MailAccount holds the credential state of a mail provider integration.
// The engine only ever reads it; token refresh is out of scope.
type MailAccount struct {
	ID          string
	Provider    string
	Address     string
	AccessToken string

	// Status is "active" or "revoked"
	Status string

	// ExpiresAt is the Unix expiry of the access token; 0 means no expiry
	ExpiresAt int64
}

// Usable reports whether the account can authenticate a provider call now.
func (a *MailAccount) Usable(now int64) bool {
	if a == nil || a.Status != "active" || a.AccessToken == "" {
		return false
	}
	return a.ExpiresAt == 0 || a.ExpiresAt > now
}
