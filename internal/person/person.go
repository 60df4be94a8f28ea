package person

// SourceKind identifies the data source a candidate sighting came from.
// Exhaustive: merge and scoring logic must reject unknown variants.
type SourceKind string

const (
	SourceContact          SourceKind = "contact"
	SourceMeetingAttendee  SourceKind = "meeting_attendee"
	SourceCalendarAttendee SourceKind = "calendar_attendee"
	SourceEmailParticipant SourceKind = "email_participant"
)

// Known reports whether k is one of the defined source kinds.
func (k SourceKind) Known() bool {
	switch k {
	case SourceContact, SourceMeetingAttendee, SourceCalendarAttendee, SourceEmailParticipant:
		return true
	}
	return false
}

// Label returns the human-readable origin for a source kind.
func (k SourceKind) Label() string {
	switch k {
	case SourceContact:
		return "CRM"
	case SourceMeetingAttendee:
		return "Meeting"
	case SourceCalendarAttendee:
		return "Calendar"
	case SourceEmailParticipant:
		return "Email"
	}
	return "Unknown"
}

// Outcome status values for a source query.
const (
	OutcomeComplete  = "complete"
	OutcomeNoResults = "no_results"
)

// SourceOutcome records how a single source adapter fared.
// Exactly one outcome is present per adapter in every resolution,
// regardless of success or failure.
type SourceOutcome struct {
	Source string `json:"source"`
	Status string `json:"status"` // "complete" | "no_results"
	Count  int    `json:"count"`
}

// Candidate is a normalized sighting of a possible person match.
// Adapters emit candidates without a recency score; the scorer fills it in
// and the deduplicator guarantees at most one candidate per dedup key.
type Candidate struct {
	ID         string     `json:"id"`
	SourceKind SourceKind `json:"source_kind"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company_name,omitempty"`
	Title     string `json:"title,omitempty"`

	// SourceLabel is the human-readable origin, e.g. "CRM", "Meeting".
	SourceLabel string `json:"source_label"`

	// LastInteractionAt is the Unix timestamp of the most recent recorded
	// interaction with this person via this source. Zero means unknown.
	LastInteractionAt int64 `json:"last_interaction_at"`

	LastInteractionKind        string `json:"last_interaction_kind"`
	LastInteractionDescription string `json:"last_interaction_description,omitempty"`

	// RecencyScore is a 0-100 freshness metric (100 = interacted just now,
	// 0 = at or beyond the recency window).
	RecencyScore int `json:"recency_score"`

	// LinkedContactID is set only when this sighting is known to correspond
	// to a contacts-directory record.
	LinkedContactID string `json:"linked_contact_id,omitempty"`

	CRMURL string `json:"crm_url,omitempty"`

	// RecentInteractions is nil until enrichment and non-nil after it,
	// even when empty. The distinction survives JSON: null means the
	// candidate was never enriched, [] means enriched with nothing found.
	RecentInteractions []RecentInteraction `json:"recent_interactions"`
}

// DedupKey returns the key under which sightings of the same person collapse:
// the lowercase email when present, else the lowercase full name.
func (c *Candidate) DedupKey() string {
	if c.Email != "" {
		return lower(c.Email)
	}
	return lower(c.FullName)
}

// RecentInteraction is one entry in a candidate's enriched timeline.
type RecentInteraction struct {
	Type        string `json:"type"` // "meeting" | "email" | "calendar"
	Date        int64  `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Request is the input to the resolution engine.
type Request struct {
	Name        string `json:"name"`
	ContextHint string `json:"context_hint,omitempty"`
}

// SearchSummary describes what the engine searched and what it found.
type SearchSummary struct {
	NameSearched    string          `json:"name_searched"`
	SourcesSearched []string        `json:"sources_searched"`
	TotalCandidates int             `json:"total_candidates"`
	Steps           []SourceOutcome `json:"steps"`
}

// Result is the output of the resolution engine. It is always well-formed:
// the engine fails open and never propagates source errors to the caller.
type Result struct {
	Success  bool   `json:"success"`
	Resolved bool   `json:"resolved"`
	Message  string `json:"message"`

	SearchSummary SearchSummary `json:"search_summary"`

	// Contact is the resolved person, present when Resolved is true.
	Contact *Candidate `json:"contact,omitempty"`

	// Candidates holds the top-scored alternatives (at most five).
	Candidates []Candidate `json:"candidates,omitempty"`

	DisambiguationNeeded bool   `json:"disambiguation_needed,omitempty"`
	DisambiguationReason string `json:"disambiguation_reason,omitempty"`
}
