package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/person"
	"github.com/hpungsan/rolodex/internal/resolve"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	engine *resolve.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, cfg *config.Config, engine *resolve.Engine) *Handlers {
	return &Handlers{db: database, cfg: cfg, engine: engine}
}

// Request types for each tool

// ResolveRequest represents the arguments for person_resolve.
type ResolveRequest struct {
	Name        string `json:"name"`
	ContextHint string `json:"context_hint,omitempty"`
}

// EnrichRequest represents the arguments for person_enrich.
type EnrichRequest struct {
	ContactID string `json:"contact_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ContactListRequest represents the arguments for contact_list.
type ContactListRequest struct {
	Filter string `json:"filter,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ContactGetRequest represents the arguments for contact_get.
type ContactGetRequest struct {
	ID string `json:"id"`
}

// ContactListResult is the contact_list response payload.
type ContactListResult struct {
	Contacts []ContactSummary `json:"contacts"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ContactSummary is one contact_list row; notes are omitted to keep the
// payload small.
type ContactSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	Title     string `json:"title,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// ContactGetResult is the contact_get response payload.
type ContactGetResult struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Title     string `json:"title,omitempty"`
	NotesMD   string `json:"notes_md,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Handler implementations

// HandleResolve handles the person_resolve tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	// Resolution fails open: even a blank name comes back as a structured
	// result, not an error.
	result := h.engine.Resolve(ctx, person.Request{
		Name:        input.Name,
		ContextHint: input.ContextHint,
	})
	return successResult(result)
}

// HandleEnrich handles the person_enrich tool call.
func (h *Handlers) HandleEnrich(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EnrichRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	candidate, err := h.engine.EnrichContact(ctx, input.ContactID, input.Email)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(candidate)
}

// HandleContactList handles the contact_list tool call.
func (h *Handlers) HandleContactList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContactListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	contacts, total, err := db.ListContacts(ctx, h.db, input.Filter, limit, offset)
	if err != nil {
		return errorResult(err), nil
	}

	out := ContactListResult{
		Contacts: make([]ContactSummary, 0, len(contacts)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for _, c := range contacts {
		out.Contacts = append(out.Contacts, ContactSummary{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Company:   c.Company,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return successResult(out)
}

// HandleContactGet handles the contact_get tool call.
func (h *Handlers) HandleContactGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContactGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	c, err := db.ContactByID(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ContactGetResult{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Title:     c.Title,
		NotesMD:   c.NotesMD,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if rErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    rErr.Code,
			"message": rErr.Message,
			"status":  rErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if rErr.Code != errors.ErrInternal && rErr.Details != nil {
			errorObj["details"] = rErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
