package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Descriptions are written for the calling model: they
// state when to use the tool and what comes back.

var resolveToolDef = mcp.NewTool("person_resolve",
	mcp.WithDescription("Figure out which person a name refers to. Searches the CRM "+
		"contacts, recent meetings, upcoming calendar events, and email concurrently, "+
		"scores candidates by how recently you interacted, and either resolves to one "+
		"person or returns a shortlist to disambiguate. Use this before acting on any "+
		"ambiguous name like 'email John about the deal'."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("The name to resolve. A first name alone is fine; a last name narrows the search."),
	),
	mcp.WithString("context_hint",
		mcp.Description("Optional free-text context from the conversation, e.g. a company or topic."),
	),
)

var enrichToolDef = mcp.NewTool("person_enrich",
	mcp.WithDescription("Fetch the recent-interaction timeline (meetings, calendar "+
		"events, emails) and CRM link for one known person. Use after a resolve, or "+
		"when the contact is already unambiguous."),
	mcp.WithString("contact_id",
		mcp.Description("CRM contact ID. Preferred when known."),
	),
	mcp.WithString("email",
		mcp.Description("Email address, for people not in the CRM. Ignored when contact_id is given."),
	),
)

var contactListToolDef = mcp.NewTool("contact_list",
	mcp.WithDescription("List CRM contacts, newest-updated first, with an optional "+
		"free-text filter over name, email, and company."),
	mcp.WithString("filter",
		mcp.Description("Substring filter over name, email, and company."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum contacts to return (default 20, max 100)."),
	),
	mcp.WithNumber("offset",
		mcp.Description("Pagination offset."),
	),
)

var contactGetToolDef = mcp.NewTool("contact_get",
	mcp.WithDescription("Fetch one CRM contact record by ID, including its notes."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("CRM contact ID."),
	),
)
