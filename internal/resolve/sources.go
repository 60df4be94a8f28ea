package resolve

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/mail"
	"github.com/hpungsan/rolodex/internal/person"
)

// fanOutSources queries all four sources concurrently and returns the
// combined raw sightings plus one outcome per source, in the fixed
// sourceNames order. A source that errors, times out, or panics is
// reported as no_results; it never fails the resolution and never
// cancels its siblings.
func (e *Engine) fanOutSources(ctx context.Context, first, last string) ([]person.Candidate, []person.SourceOutcome) {
	type adapter struct {
		name string
		run  func(context.Context) ([]person.Candidate, error)
	}

	adapters := []adapter{
		{"contacts", func(ctx context.Context) ([]person.Candidate, error) {
			return e.contactSource(ctx, first, last)
		}},
		{"meetings", func(ctx context.Context) ([]person.Candidate, error) {
			return e.meetingSource(ctx, first)
		}},
		{"calendar", func(ctx context.Context) ([]person.Candidate, error) {
			return e.calendarSource(ctx, first)
		}},
		{"email", func(ctx context.Context) ([]person.Candidate, error) {
			return e.emailSource(ctx, first)
		}},
	}

	results := make([][]person.Candidate, len(adapters))
	outcomes := make([]person.SourceOutcome, len(adapters))

	// Plain Group, not WithContext: one failing source must not cancel
	// the others.
	var g errgroup.Group
	for i, a := range adapters {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, e.sourceTimeout())
			defer cancel()

			sightings, err := runSource(sctx, a.run)
			if err != nil {
				// Typed cause for the log line only; the caller sees a
				// plain no_results outcome.
				e.logger.WarnContext(ctx, "source query failed",
					"source", a.name, "error", errors.NewSourceUnavailable(a.name, err))
				outcomes[i] = person.SourceOutcome{Source: a.name, Status: person.OutcomeNoResults}
				return nil
			}
			if len(sightings) == 0 {
				outcomes[i] = person.SourceOutcome{Source: a.name, Status: person.OutcomeNoResults}
				return nil
			}
			results[i] = sightings
			outcomes[i] = person.SourceOutcome{Source: a.name, Status: person.OutcomeComplete, Count: len(sightings)}
			return nil
		})
	}
	_ = g.Wait()

	var combined []person.Candidate
	for _, r := range results {
		combined = append(combined, r...)
	}
	return combined, outcomes
}

// runSource invokes one adapter, converting a panic into an error so a
// misbehaving source degrades to no_results like any other failure.
func runSource(ctx context.Context, fn func(context.Context) ([]person.Candidate, error)) (sightings []person.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// contactSource matches directory contacts by first-name prefix, and by
// last-name prefix too when one was given.
func (e *Engine) contactSource(ctx context.Context, first, last string) ([]person.Candidate, error) {
	contacts, err := db.ContactsByPrefix(ctx, e.db, first, last, ContactLimit)
	if err != nil {
		return nil, err
	}

	candidates := make([]person.Candidate, 0, len(contacts))
	for _, c := range contacts {
		lastAt := c.UpdatedAt
		if lastAt == 0 {
			lastAt = c.CreatedAt
		}
		candidates = append(candidates, person.Candidate{
			ID:                         c.ID,
			SourceKind:                 person.SourceContact,
			SourceLabel:                person.SourceContact.Label(),
			FirstName:                  c.FirstName,
			LastName:                   c.LastName,
			FullName:                   c.FullName(),
			Email:                      c.Email,
			Phone:                      c.Phone,
			Company:                    c.Company,
			Title:                      c.Title,
			LastInteractionAt:          lastAt,
			LastInteractionKind:        "crm_update",
			LastInteractionDescription: "Contact record updated",
			LinkedContactID:            c.ID,
		})
	}
	return candidates, nil
}

// meetingSource scans recent meetings and emits a sighting for every
// attendee whose display name matches the first name.
func (e *Engine) meetingSource(ctx context.Context, first string) ([]person.Candidate, error) {
	since := e.now().Add(-e.window()).Unix()
	meetings, err := db.MeetingsSince(ctx, e.db, since, MeetingScan)
	if err != nil {
		return nil, err
	}

	var candidates []person.Candidate
	for _, m := range meetings {
		for i, a := range m.Attendees {
			if !person.NameMatches(a.Name, first) {
				continue
			}
			af, al := person.SplitName(a.Name)
			candidates = append(candidates, person.Candidate{
				ID:                         m.ID + "/" + strconv.Itoa(i),
				SourceKind:                 person.SourceMeetingAttendee,
				SourceLabel:                person.SourceMeetingAttendee.Label(),
				FirstName:                  af,
				LastName:                   al,
				FullName:                   a.Name,
				Email:                      a.Email,
				LastInteractionAt:          m.StartedAt,
				LastInteractionKind:        "meeting",
				LastInteractionDescription: m.Title,
				LinkedContactID:            a.ContactID,
			})
		}
	}
	return candidates, nil
}

// calendarSource scans events from the recency window into the near
// future, so an upcoming meeting counts as a sighting. Attendees with no
// display name are matched via a name derived from their email local-part.
func (e *Engine) calendarSource(ctx context.Context, first string) ([]person.Candidate, error) {
	now := e.now()
	from := now.Add(-e.window()).Unix()
	to := now.Add(time.Duration(e.cfg.LookaheadDays) * 24 * time.Hour).Unix()

	events, err := db.EventsBetween(ctx, e.db, from, to, EventScan)
	if err != nil {
		return nil, err
	}

	var candidates []person.Candidate
	for _, ev := range events {
		for i, a := range ev.Attendees {
			display := a.Name
			if display == "" {
				display = person.DisplayNameFromEmail(a.Email)
			}
			if !person.NameMatches(display, first) {
				continue
			}
			af, al := person.SplitName(display)
			candidates = append(candidates, person.Candidate{
				ID:                         ev.ID + "/" + strconv.Itoa(i),
				SourceKind:                 person.SourceCalendarAttendee,
				SourceLabel:                person.SourceCalendarAttendee.Label(),
				FirstName:                  af,
				LastName:                   al,
				FullName:                   display,
				Email:                      a.Email,
				LastInteractionAt:          ev.StartsAt,
				LastInteractionKind:        "calendar",
				LastInteractionDescription: ev.Title,
			})
		}
	}
	return candidates, nil
}

// emailSource searches the mail provider for recent messages mentioning
// the first name and emits a sighting per message whose sender or
// recipient matches. A missing or unusable account is ordinary absence,
// not an error. Message metadata is fetched concurrently; individual
// fetch failures skip that message only.
func (e *Engine) emailSource(ctx context.Context, first string) ([]person.Candidate, error) {
	if e.newMailClient == nil {
		return nil, nil
	}

	account, err := db.ActiveMailAccount(ctx, e.db)
	if err != nil {
		return nil, err
	}
	if !account.Usable(e.now().Unix()) {
		return nil, nil
	}

	client, err := e.newMailClient(account.AccessToken)
	if err != nil {
		return nil, errors.NewProvider("new_client", err)
	}

	after := e.now().Add(-e.window())
	ids, err := client.SearchMessages(ctx, first, after, MailSearchLimit)
	if err != nil {
		return nil, errors.NewProvider("search_messages", err)
	}
	if len(ids) > MailFetchLimit {
		ids = ids[:MailFetchLimit]
	}

	messages := make([]*mail.Message, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MailFetchLimit)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := client.GetMessage(gctx, id)
			if err != nil {
				e.logger.WarnContext(ctx, "message fetch failed", "message_id", id, "error", err)
				return nil
			}
			messages[i] = msg
			return nil
		})
	}
	_ = g.Wait()

	var candidates []person.Candidate
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		p, ok := matchParticipant(msg.From, msg.To, first)
		if !ok {
			continue
		}
		name := p.Name
		if name == "" {
			name = person.DisplayNameFromEmail(p.Address)
		}
		nf, nl := person.SplitName(name)
		candidates = append(candidates, person.Candidate{
			ID:                         msg.ID,
			SourceKind:                 person.SourceEmailParticipant,
			SourceLabel:                person.SourceEmailParticipant.Label(),
			FirstName:                  nf,
			LastName:                   nl,
			FullName:                   name,
			Email:                      p.Address,
			LastInteractionAt:          msg.At,
			LastInteractionKind:        "email",
			LastInteractionDescription: msg.Subject,
		})
	}
	return candidates, nil
}

// matchParticipant finds which side of a message matches the queried
// first name, preferring the sender. A participant matches on display
// name or email local-part; unparseable headers are skipped.
func matchParticipant(from, to, first string) (mail.Participant, bool) {
	for _, header := range []string{from, to} {
		if header == "" {
			continue
		}
		p, err := mail.ParseParticipant(header)
		if err != nil {
			continue
		}
		if person.NameMatches(p.Name, first) || person.EmailMatches(p.Address, first) {
			return p, true
		}
	}
	return mail.Participant{}, false
}
