// Package resolve implements person entity resolution: given a partial
// name, it fans out across the contacts directory, meetings, calendar,
// and the mail provider, scores candidate sightings by interaction
// recency, merges duplicates, and either resolves to one person or asks
// the caller to disambiguate.
package resolve

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/logging"
	"github.com/hpungsan/rolodex/internal/mail"
	"github.com/hpungsan/rolodex/internal/person"
)

// Per-source caps. The tunable knobs (recency window, lookahead,
// auto-resolve gap, source timeout) live in config; these bound raw scan
// sizes and result lists.
const (
	ContactLimit    = 10 // directory rows per lookup
	MeetingScan     = 50 // meetings examined per lookup
	EventScan       = 50 // calendar events examined per lookup
	MailSearchLimit = 20 // message ids requested from the provider
	MailFetchLimit  = 10 // metadata fetches per resolve, also the fan-out bound

	MaxCandidates = 5 // shortlist returned alongside a decision
	EnrichTopN    = 3 // shortlist entries enriched on disambiguation

	EnrichMeetingLimit = 5
	EnrichEventLimit   = 3
	EnrichMailLimit    = 5
	TimelineLimit      = 10

	// TranscriptSnippetChars caps the transcript excerpt used when a
	// meeting has no stored summary.
	TranscriptSnippetChars = 200
)

// sourceNames is the fixed adapter order. Every resolution reports
// exactly one outcome per entry, in this order.
var sourceNames = []string{"contacts", "meetings", "calendar", "email"}

// MailAPI is the slice of the provider client the engine consumes.
// *mail.Client satisfies it; tests substitute fakes.
type MailAPI interface {
	SearchMessages(ctx context.Context, query string, after time.Time, limit int) ([]string, error)
	GetMessage(ctx context.Context, id string) (*mail.Message, error)
}

// MailClientFactory builds a provider client for a stored access token.
// The engine calls it per resolution because the token is read from the
// mail account row at call time.
type MailClientFactory func(token string) (MailAPI, error)

// Engine resolves person references against the local stores and the
// mail provider. It is read-only and holds no state between calls.
type Engine struct {
	db            *sql.DB
	cfg           *config.Config
	newMailClient MailClientFactory
	logger        *slog.Logger
	now           func() time.Time
}

// EngineOption configures an Engine during construction.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source. Resolution is
// deterministic for a fixed snapshot and clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMailClientFactory overrides how provider clients are built.
func WithMailClientFactory(f MailClientFactory) EngineOption {
	return func(e *Engine) { e.newMailClient = f }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine over the given database and config.
func NewEngine(database *sql.DB, cfg *config.Config, opts ...EngineOption) *Engine {
	e := &Engine{
		db:     database,
		cfg:    cfg,
		logger: logging.Discard(),
		now:    time.Now,
	}

	if cfg.MailAPIBase != "" {
		base := cfg.MailAPIBase
		e.newMailClient = func(token string) (MailAPI, error) {
			return mail.New(base, token)
		}
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sourceTimeout returns the per-adapter deadline.
func (e *Engine) sourceTimeout() time.Duration {
	return time.Duration(e.cfg.SourceTimeoutSecs) * time.Second
}

// window returns the recency lookback as a duration.
func (e *Engine) window() time.Duration {
	return time.Duration(e.cfg.RecencyWindowDays) * 24 * time.Hour
}

// Resolve identifies which person a (possibly partial) name refers to.
// It always returns a well-formed result and never an error: source
// failures degrade to empty outcomes, and the only validation failure
// (an empty name) is reported in-band without touching any source.
func (e *Engine) Resolve(ctx context.Context, req person.Request) *person.Result {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return &person.Result{
			Success:  false,
			Resolved: false,
			Message:  "name is required: provide at least a first name to look up",
			SearchSummary: person.SearchSummary{
				SourcesSearched: []string{},
				Steps:           []person.SourceOutcome{},
			},
		}
	}

	first, last := person.SplitName(name)

	started := e.now()
	candidates, steps := e.fanOutSources(ctx, first, last)
	e.logger.DebugContext(ctx, "source fan-out complete",
		"name", name, "raw_sightings", len(candidates), "elapsed", time.Since(started))

	now := e.now()
	for i := range candidates {
		candidates[i].RecencyScore = recencyScore(candidates[i].LastInteractionAt, now, e.cfg.RecencyWindowDays)
	}

	deduped := dedupe(candidates)

	result := &person.Result{
		Success: true,
		SearchSummary: person.SearchSummary{
			NameSearched:    name,
			SourcesSearched: append([]string{}, sourceNames...),
			TotalCandidates: len(deduped),
			Steps:           steps,
		},
	}

	switch {
	case len(deduped) == 0:
		result.Resolved = false
		result.Message = fmt.Sprintf(
			"No one matching %q was found in the CRM, recent meetings, calendar, or email. "+
				"Try adding more context, like an email address, a company, or when you last talked.", name)

	case len(deduped) == 1:
		contact := deduped[0]
		e.enrich(ctx, &contact)
		result.Resolved = true
		result.Contact = &contact
		result.Message = fmt.Sprintf("Resolved %q to %s (%s).", name, contact.FullName, contact.SourceLabel)

	default:
		top := deduped[0]
		second := deduped[1]
		gap := top.RecencyScore - second.RecencyScore

		shortlist := deduped
		if len(shortlist) > MaxCandidates {
			shortlist = shortlist[:MaxCandidates]
		}
		// Copy so enrichment of shortlist entries never aliases deduped
		shortlist = append([]person.Candidate{}, shortlist...)

		if gap > e.cfg.AutoResolveGap {
			e.enrich(ctx, &top)
			result.Resolved = true
			result.Contact = &top
			result.Candidates = shortlist
			result.Message = fmt.Sprintf(
				"Multiple people match %q; went with %s based on the most recent interaction "+
					"(%d points ahead of %s). The full candidate list is attached in case that's wrong.",
				name, top.FullName, gap, second.FullName)
		} else {
			for i := 0; i < len(shortlist) && i < EnrichTopN; i++ {
				e.enrich(ctx, &shortlist[i])
			}
			result.Resolved = false
			result.DisambiguationNeeded = true
			result.DisambiguationReason = fmt.Sprintf(
				"%s (%s, score %d) and %s (%s, score %d) both match %q with similar recent activity.",
				top.FullName, top.SourceLabel, top.RecencyScore,
				second.FullName, second.SourceLabel, second.RecencyScore, name)
			result.Candidates = shortlist
			result.Message = fmt.Sprintf(
				"Found %d people matching %q. Which one did you mean?", len(deduped), name)
		}
	}

	return result
}
