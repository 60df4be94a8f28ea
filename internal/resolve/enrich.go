package resolve

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/person"
)

// EnrichContact builds an enriched candidate for a known person outside
// a full resolution: either a directory contact by ID, or an email-only
// identity assembled from the address. Exactly one of contactID and
// email is required; contactID wins when both are given.
func (e *Engine) EnrichContact(ctx context.Context, contactID, email string) (*person.Candidate, error) {
	if contactID == "" && email == "" {
		return nil, errors.NewInvalidRequest("contact_id or email is required")
	}

	var cand person.Candidate
	if contactID != "" {
		c, err := db.ContactByID(ctx, e.db, contactID)
		if err != nil {
			return nil, err
		}
		lastAt := c.UpdatedAt
		if lastAt == 0 {
			lastAt = c.CreatedAt
		}
		cand = person.Candidate{
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
		}
	} else {
		name := person.DisplayNameFromEmail(email)
		nf, nl := person.SplitName(name)
		cand = person.Candidate{
			ID:          email,
			SourceKind:  person.SourceEmailParticipant,
			SourceLabel: person.SourceEmailParticipant.Label(),
			FirstName:   nf,
			LastName:    nl,
			FullName:    name,
			Email:       email,
		}
	}

	cand.RecencyScore = recencyScore(cand.LastInteractionAt, e.now(), e.cfg.RecencyWindowDays)
	e.enrich(ctx, &cand)
	return &cand, nil
}

// enrich attaches a recent-interaction timeline and a CRM deep link to a
// candidate. Meetings, calendar events, and provider messages are looked
// up concurrently; a failed lookup contributes nothing rather than
// failing the enrichment. The timeline is always non-nil afterwards.
func (e *Engine) enrich(ctx context.Context, c *person.Candidate) {
	now := e.now()
	since := now.Add(-e.window()).Unix()

	var meetings, events, mails []person.RecentInteraction

	var g errgroup.Group
	g.Go(func() error {
		meetings = e.enrichMeetings(ctx, c, since)
		return nil
	})
	g.Go(func() error {
		events = e.enrichEvents(ctx, c, since, now.Unix())
		return nil
	})
	g.Go(func() error {
		mails = e.enrichMail(ctx, c, since)
		return nil
	})
	_ = g.Wait()

	timeline := make([]person.RecentInteraction, 0, len(meetings)+len(events)+len(mails))
	timeline = append(timeline, meetings...)
	timeline = append(timeline, events...)
	timeline = append(timeline, mails...)

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Date > timeline[j].Date
	})
	if len(timeline) > TimelineLimit {
		timeline = timeline[:TimelineLimit]
	}
	c.RecentInteractions = timeline

	if c.LinkedContactID != "" && e.cfg.CRMBaseURL != "" {
		c.CRMURL = e.cfg.CRMBaseURL + "/contacts/" + c.LinkedContactID
	}
}

func (e *Engine) enrichMeetings(ctx context.Context, c *person.Candidate, since int64) []person.RecentInteraction {
	sctx, cancel := context.WithTimeout(ctx, e.sourceTimeout())
	defer cancel()

	meetings, err := db.MeetingsWithPerson(sctx, e.db, c.LinkedContactID, c.Email, since, EnrichMeetingLimit)
	if err != nil {
		e.logger.WarnContext(ctx, "meeting enrichment failed", "candidate", c.ID, "error", err)
		return nil
	}

	out := make([]person.RecentInteraction, 0, len(meetings))
	for _, m := range meetings {
		entry := person.RecentInteraction{
			Type:    "meeting",
			Date:    m.StartedAt,
			Title:   m.Title,
			Snippet: meetingSnippet(&m),
		}
		if e.cfg.CRMBaseURL != "" {
			entry.URL = e.cfg.CRMBaseURL + "/meetings/" + m.ID
		}
		out = append(out, entry)
	}
	return out
}

func (e *Engine) enrichEvents(ctx context.Context, c *person.Candidate, since, until int64) []person.RecentInteraction {
	if c.Email == "" {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.sourceTimeout())
	defer cancel()

	events, err := db.EventsWithAttendee(sctx, e.db, c.Email, since, until, EnrichEventLimit)
	if err != nil {
		e.logger.WarnContext(ctx, "calendar enrichment failed", "candidate", c.ID, "error", err)
		return nil
	}

	out := make([]person.RecentInteraction, 0, len(events))
	for _, ev := range events {
		out = append(out, person.RecentInteraction{
			Type:        "calendar",
			Date:        ev.StartsAt,
			Title:       ev.Title,
			Description: ev.Location,
		})
	}
	return out
}

func (e *Engine) enrichMail(ctx context.Context, c *person.Candidate, since int64) []person.RecentInteraction {
	if c.Email == "" || e.newMailClient == nil {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.sourceTimeout())
	defer cancel()

	account, err := db.ActiveMailAccount(sctx, e.db)
	if err != nil {
		e.logger.WarnContext(ctx, "mail enrichment failed", "candidate", c.ID, "error", err)
		return nil
	}
	if !account.Usable(e.now().Unix()) {
		return nil
	}

	client, err := e.newMailClient(account.AccessToken)
	if err != nil {
		e.logger.WarnContext(ctx, "mail enrichment failed", "candidate", c.ID, "error", err)
		return nil
	}

	ids, err := client.SearchMessages(sctx, c.Email, time.Unix(since, 0), EnrichMailLimit)
	if err != nil {
		e.logger.WarnContext(ctx, "mail enrichment failed", "candidate", c.ID, "error", err)
		return nil
	}
	if len(ids) > EnrichMailLimit {
		ids = ids[:EnrichMailLimit]
	}

	out := make([]person.RecentInteraction, 0, len(ids))
	for _, id := range ids {
		msg, err := client.GetMessage(sctx, id)
		if err != nil {
			e.logger.WarnContext(ctx, "message fetch failed", "message_id", id, "error", err)
			continue
		}
		out = append(out, person.RecentInteraction{
			Type:    "email",
			Date:    msg.At,
			Title:   msg.Subject,
			Snippet: msg.Snippet,
		})
	}
	return out
}

// meetingSnippet prefers the stored summary; without one it excerpts the
// transcript, truncated on a rune boundary with an ellipsis.
func meetingSnippet(m *person.Meeting) string {
	if m.Summary != "" {
		return m.Summary
	}
	if m.Transcript == "" {
		return ""
	}
	if utf8.RuneCountInString(m.Transcript) <= TranscriptSnippetChars {
		return m.Transcript
	}
	runes := []rune(m.Transcript)
	return string(runes[:TranscriptSnippetChars]) + "..."
}
