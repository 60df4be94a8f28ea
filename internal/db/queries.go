package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/person"
)

// escapeLike escapes LIKE wildcards in user input so a query for "50%_off"
// matches literally. Used with ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// toNullString converts an empty string to a SQL NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ContactsByPrefix returns directory contacts whose first name starts with
// first (case-insensitive); when last is non-empty the last name must start
// with it too. Ordered most-recently-updated first.
func ContactsByPrefix(ctx context.Context, db *sql.DB, first, last string, limit int) ([]person.Contact, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, company, title, notes_md,
			created_at, updated_at
		FROM contacts
		WHERE first_name LIKE ? ESCAPE '\'
	`
	args := []any{escapeLike(first) + "%"}

	if last != "" {
		query += ` AND last_name LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(last)+"%")
	}

	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ContactByID retrieves a single contact.
func ContactByID(ctx context.Context, db *sql.DB, id string) (*person.Contact, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, company, title, notes_md,
			created_at, updated_at
		FROM contacts
		WHERE id = ?
	`
	row := db.QueryRowContext(ctx, query, id)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListContacts returns contacts matching an optional free-text filter
// against name, email, and company, newest-updated first, plus the total
// match count for pagination.
func ListContacts(ctx context.Context, db *sql.DB, filter string, limit, offset int) ([]person.Contact, int, error) {
	where := ""
	args := []any{}
	if filter != "" {
		pattern := "%" + escapeLike(filter) + "%"
		where = `
		WHERE first_name LIKE ? ESCAPE '\'
			OR last_name LIKE ? ESCAPE '\'
			OR email LIKE ? ESCAPE '\'
			OR company LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern, pattern)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM contacts` + where
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, first_name, last_name, email, phone, company, title, notes_md,
			created_at, updated_at
		FROM contacts` + where + `
		ORDER BY updated_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	contacts, err := scanContacts(rows)
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

// MeetingsSince returns meetings that started at or after the given Unix
// timestamp, most recent first, with attendee lists attached.
func MeetingsSince(ctx context.Context, db *sql.DB, since int64, limit int) ([]person.Meeting, error) {
	query := `
		SELECT id, title, started_at, summary, transcript
		FROM meetings
		WHERE started_at >= ?
		ORDER BY started_at DESC LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	meetings, err := scanMeetings(rows)
	if err != nil {
		return nil, err
	}
	if err := attachMeetingAttendees(ctx, db, meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// MeetingsWithPerson returns meetings since the given timestamp whose
// attendee list includes the person, matched by linked contact ID and/or
// email. Most recent first; attendees are not attached.
func MeetingsWithPerson(ctx context.Context, db *sql.DB, contactID, email string, since int64, limit int) ([]person.Meeting, error) {
	if contactID == "" && email == "" {
		return nil, nil
	}

	query := `
		SELECT DISTINCT m.id, m.title, m.started_at, m.summary, m.transcript
		FROM meetings m
		JOIN meeting_attendees a ON a.meeting_id = m.id
		WHERE m.started_at >= ? AND (
			(? != '' AND a.contact_id = ?) OR
			(? != '' AND a.email = ? COLLATE NOCASE)
		)
		ORDER BY m.started_at DESC LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, since, contactID, contactID, email, email, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return scanMeetings(rows)
}

// EventsBetween returns calendar events starting in [from, to], most recent
// first, with attendee lists attached.
func EventsBetween(ctx context.Context, db *sql.DB, from, to int64, limit int) ([]person.CalendarEvent, error) {
	query := `
		SELECT id, title, starts_at, location
		FROM calendar_events
		WHERE starts_at >= ? AND starts_at <= ?
		ORDER BY starts_at DESC LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := attachEventAttendees(ctx, db, events); err != nil {
		return nil, err
	}
	return events, nil
}

// EventsWithAttendee returns events in [from, to] whose attendee list
// includes the given email. Attendees are not attached.
func EventsWithAttendee(ctx context.Context, db *sql.DB, email string, from, to int64, limit int) ([]person.CalendarEvent, error) {
	if email == "" {
		return nil, nil
	}

	query := `
		SELECT DISTINCT e.id, e.title, e.starts_at, e.location
		FROM calendar_events e
		JOIN event_attendees a ON a.event_id = e.id
		WHERE e.starts_at >= ? AND e.starts_at <= ? AND a.email = ? COLLATE NOCASE
		ORDER BY e.starts_at DESC LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, from, to, email, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ActiveMailAccount returns the active mail provider integration, or
// (nil, nil) when none is configured. Token expiry is checked by the
// caller; this only filters on status.
func ActiveMailAccount(ctx context.Context, db *sql.DB) (*person.MailAccount, error) {
	query := `
		SELECT id, provider, address, access_token, status, expires_at
		FROM mail_accounts
		WHERE status = 'active'
		ORDER BY id DESC LIMIT 1
	`
	var a person.MailAccount
	err := db.QueryRowContext(ctx, query).Scan(
		&a.ID, &a.Provider, &a.Address, &a.AccessToken, &a.Status, &a.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &a, nil
}

// Insert queries, used by the seed importer. The resolution engine itself
// never writes.

// InsertContact stores a new directory contact.
func InsertContact(ctx context.Context, db *sql.DB, c *person.Contact) error {
	query := `
		INSERT INTO contacts (id, first_name, last_name, email, phone, company,
			title, notes_md, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		c.ID, c.FirstName, toNullString(c.LastName), toNullString(c.Email),
		toNullString(c.Phone), toNullString(c.Company), toNullString(c.Title),
		toNullString(c.NotesMD), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertMeeting stores a meeting and its attendees in one transaction.
func InsertMeeting(ctx context.Context, db *sql.DB, m *person.Meeting) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meetings (id, title, started_at, summary, transcript) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.StartedAt, toNullString(m.Summary), toNullString(m.Transcript),
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	for _, a := range m.Attendees {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO meeting_attendees (meeting_id, contact_id, name, email) VALUES (?, ?, ?, ?)`,
			m.ID, toNullString(a.ContactID), a.Name, toNullString(a.Email),
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertEvent stores a calendar event and its attendees in one transaction.
func InsertEvent(ctx context.Context, db *sql.DB, e *person.CalendarEvent) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO calendar_events (id, title, starts_at, location) VALUES (?, ?, ?, ?)`,
		e.ID, e.Title, e.StartsAt, toNullString(e.Location),
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	for _, a := range e.Attendees {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO event_attendees (event_id, name, email) VALUES (?, ?, ?)`,
			e.ID, toNullString(a.Name), a.Email,
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpsertMailAccount stores or replaces a mail provider integration.
func UpsertMailAccount(ctx context.Context, db *sql.DB, a *person.MailAccount) error {
	query := `
		INSERT INTO mail_accounts (id, provider, address, access_token, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			address = excluded.address,
			access_token = excluded.access_token,
			status = excluded.status,
			expires_at = excluded.expires_at
	`
	_, err := db.ExecContext(ctx, query, a.ID, a.Provider, a.Address, a.AccessToken, a.Status, a.ExpiresAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Row scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*person.Contact, error) {
	var c person.Contact
	var lastName, email, phone, company, title, notes sql.NullString
	err := row.Scan(&c.ID, &c.FirstName, &lastName, &email, &phone, &company,
		&title, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.LastName = lastName.String
	c.Email = email.String
	c.Phone = phone.String
	c.Company = company.String
	c.Title = title.String
	c.NotesMD = notes.String
	return &c, nil
}

func scanContacts(rows *sql.Rows) ([]person.Contact, error) {
	var contacts []person.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return contacts, nil
}

func scanMeetings(rows *sql.Rows) ([]person.Meeting, error) {
	var meetings []person.Meeting
	for rows.Next() {
		var m person.Meeting
		var summary, transcript sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &m.StartedAt, &summary, &transcript); err != nil {
			return nil, errors.NewInternal(err)
		}
		m.Summary = summary.String
		m.Transcript = transcript.String
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return meetings, nil
}

func scanEvents(rows *sql.Rows) ([]person.CalendarEvent, error) {
	var events []person.CalendarEvent
	for rows.Next() {
		var e person.CalendarEvent
		var location sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &location); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Location = location.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return events, nil
}

// attachMeetingAttendees loads attendee lists for the given meetings.
func attachMeetingAttendees(ctx context.Context, db *sql.DB, meetings []person.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}

	index := make(map[string]int, len(meetings))
	placeholders := make([]string, len(meetings))
	args := make([]any, len(meetings))
	for i := range meetings {
		index[meetings[i].ID] = i
		placeholders[i] = "?"
		args[i] = meetings[i].ID
	}

	query := `
		SELECT meeting_id, contact_id, name, email
		FROM meeting_attendees
		WHERE meeting_id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var a person.MeetingAttendee
		var contactID, email sql.NullString
		if err := rows.Scan(&a.MeetingID, &contactID, &a.Name, &email); err != nil {
			return errors.NewInternal(err)
		}
		a.ContactID = contactID.String
		a.Email = email.String
		if i, ok := index[a.MeetingID]; ok {
			meetings[i].Attendees = append(meetings[i].Attendees, a)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// attachEventAttendees loads attendee lists for the given events.
func attachEventAttendees(ctx context.Context, db *sql.DB, events []person.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	index := make(map[string]int, len(events))
	placeholders := make([]string, len(events))
	args := make([]any, len(events))
	for i := range events {
		index[events[i].ID] = i
		placeholders[i] = "?"
		args[i] = events[i].ID
	}

	query := `
		SELECT event_id, name, email
		FROM event_attendees
		WHERE event_id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var a person.EventAttendee
		var name sql.NullString
		if err := rows.Scan(&a.EventID, &name, &a.Email); err != nil {
			return errors.NewInternal(err)
		}
		a.Name = name.String
		if i, ok := index[a.EventID]; ok {
			events[i].Attendees = append(events[i].Attendees, a)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
