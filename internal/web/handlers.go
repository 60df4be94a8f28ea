package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/person"
	"github.com/hpungsan/rolodex/internal/resolve"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	engine   *resolve.Engine
	renderer *Renderer
}

// HandleContacts handles GET /contacts — list directory contacts.
func (h *Handlers) HandleContacts(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	limit := parseIntParam(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	contacts, total, err := db.ListContacts(r.Context(), h.db, filter, limit, offset)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Contacts",
			Version: h.renderer.version,
			Nav:     "contacts",
		},
		Contacts: contacts,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		Filter:   filter,
	})
}

// HandleContactDetail handles GET /contacts/{id} — a single contact with
// rendered notes and the recent-interaction timeline.
func (h *Handlers) HandleContactDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("contact ID is required"))
		return
	}

	contact, err := db.ContactByID(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// The record renders even when enrichment fails; the page just shows
	// no timeline.
	enriched, err := h.engine.EnrichContact(r.Context(), id, "")
	if err != nil {
		enriched = nil
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   contact.FullName(),
			Version: h.renderer.version,
			Nav:     "contacts",
		},
		Contact:   contact,
		NotesHTML: renderMarkdown(contact.NotesMD),
		Enriched:  enriched,
	})
}

// HandleResolve handles GET /resolve — the resolution playground. Without
// a name it shows the form; with one it runs the engine and renders the
// decision.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	data := ResolvePageData{
		PageData: PageData{
			Title:   "Resolve",
			Version: h.renderer.version,
			Nav:     "resolve",
		},
		Name:     name,
		HasQuery: name != "",
	}

	if name != "" {
		data.Result = h.engine.Resolve(r.Context(), person.Request{Name: name})
	}

	h.renderer.renderPage(w, r, "resolve", data)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
