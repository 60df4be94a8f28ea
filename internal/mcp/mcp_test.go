package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/person"
	"github.com/hpungsan/rolodex/internal/resolve"
)

// testSetup creates a temporary database, config, and handlers for testing.
func testSetup(t *testing.T) (*sql.DB, *Handlers) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.CRMBaseURL = "https://crm.example.com"

	engine := resolve.NewEngine(database, cfg)
	return database, NewHandlers(database, cfg, engine)
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func seedTestContact(t *testing.T, database *sql.DB, id, first, last, email string) {
	t.Helper()
	now := time.Now().Unix()
	err := db.InsertContact(context.Background(), database, &person.Contact{
		ID: id, FirstName: first, LastName: last, Email: email,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed contact: %v", err)
	}
}

func TestHandleResolve(t *testing.T) {
	database, h := testSetup(t)
	seedTestContact(t, database, "c-priya", "Priya", "Shah", "priya@x.com")

	result, err := h.HandleResolve(context.Background(), makeRequest(map[string]any{
		"name": "Priya",
	}))
	if err != nil {
		t.Fatalf("HandleResolve returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, result))
	}

	var out person.Result
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !out.Resolved || out.Contact == nil || out.Contact.FullName != "Priya Shah" {
		t.Errorf("result = %+v", out)
	}
	if len(out.SearchSummary.Steps) != 4 {
		t.Errorf("steps = %d, want 4", len(out.SearchSummary.Steps))
	}
}

func TestHandleResolveEmptyName(t *testing.T) {
	_, h := testSetup(t)

	result, err := h.HandleResolve(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleResolve returned error: %v", err)
	}
	// Validation is in-band: a structured non-success result, not a
	// protocol error.
	if result.IsError {
		t.Fatal("IsError = true, want in-band validation result")
	}

	var out person.Result
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Success {
		t.Error("success = true, want false for a blank name")
	}
}

func TestHandleEnrich(t *testing.T) {
	database, h := testSetup(t)
	seedTestContact(t, database, "c-1", "Dana", "Wu", "dana@remote.io")

	result, err := h.HandleEnrich(context.Background(), makeRequest(map[string]any{
		"contact_id": "c-1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, result))
	}

	var out person.Candidate
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.FullName != "Dana Wu" {
		t.Errorf("FullName = %q", out.FullName)
	}
	if out.CRMURL != "https://crm.example.com/contacts/c-1" {
		t.Errorf("CRMURL = %q", out.CRMURL)
	}
}

func TestHandleEnrichRequiresIdentity(t *testing.T) {
	_, h := testSetup(t)

	result, err := h.HandleEnrich(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("want IsError for missing contact_id and email")
	}
	if !strings.Contains(resultText(t, result), "INVALID_REQUEST") {
		t.Errorf("payload = %s", resultText(t, result))
	}
}

func TestHandleEnrichNotFound(t *testing.T) {
	_, h := testSetup(t)

	result, err := h.HandleEnrich(context.Background(), makeRequest(map[string]any{
		"contact_id": "nope",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("want IsError for an unknown contact")
	}
	if !strings.Contains(resultText(t, result), "NOT_FOUND") {
		t.Errorf("payload = %s", resultText(t, result))
	}
}

func TestHandleContactList(t *testing.T) {
	database, h := testSetup(t)
	seedTestContact(t, database, "c-1", "Priya", "Shah", "priya@acme.com")
	seedTestContact(t, database, "c-2", "John", "Appleseed", "john@globex.com")

	result, err := h.HandleContactList(context.Background(), makeRequest(map[string]any{
		"filter": "acme",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("IsError: %s", resultText(t, result))
	}

	var out ContactListResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || len(out.Contacts) != 1 || out.Contacts[0].ID != "c-1" {
		t.Errorf("result = %+v", out)
	}
	if out.Limit != defaultListLimit {
		t.Errorf("limit = %d, want default %d", out.Limit, defaultListLimit)
	}
}

func TestHandleContactListCapsLimit(t *testing.T) {
	_, h := testSetup(t)

	result, err := h.HandleContactList(context.Background(), makeRequest(map[string]any{
		"limit": 10_000,
	}))
	if err != nil {
		t.Fatal(err)
	}

	var out ContactListResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Limit != maxListLimit {
		t.Errorf("limit = %d, want capped at %d", out.Limit, maxListLimit)
	}
}

func TestHandleContactGet(t *testing.T) {
	database, h := testSetup(t)
	seedTestContact(t, database, "c-1", "Priya", "Shah", "priya@x.com")

	result, err := h.HandleContactGet(context.Background(), makeRequest(map[string]any{
		"id": "c-1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("IsError: %s", resultText(t, result))
	}

	var out ContactGetResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Email != "priya@x.com" {
		t.Errorf("Email = %q", out.Email)
	}
}

func TestToolRegistryNames(t *testing.T) {
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		found := false
		for _, known := range KnownTypes {
			if typ == known {
				found = true
			}
		}
		if !found {
			t.Errorf("tool %q has unknown type %q", name, typ)
		}
	}
}

func TestValidateDisabled(t *testing.T) {
	if unknown := ValidateDisabledTools([]string{"person_resolve", "bogus"}); len(unknown) != 1 || unknown[0] != "bogus" {
		t.Errorf("unknown tools = %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"person", "widget"}); len(unknown) != 1 || unknown[0] != "widget" {
		t.Errorf("unknown types = %v", unknown)
	}
}

func TestExpandTypesToTools(t *testing.T) {
	tools := ExpandTypesToTools([]string{"contact"})
	want := map[string]bool{"contact_list": true, "contact_get": true}
	if len(tools) != len(want) {
		t.Fatalf("tools = %v", tools)
	}
	for _, name := range tools {
		if !want[name] {
			t.Errorf("unexpected tool %q", name)
		}
	}
}

func TestNewServerRespectsDisabledTools(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"person_enrich"}
	cfg.DisabledTypes = []string{"contact"}

	s := NewServer(database, cfg, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}
