package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/db"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/person"
	"github.com/hpungsan/rolodex/internal/resolve"
	"github.com/hpungsan/rolodex/internal/seed"
	"github.com/hpungsan/rolodex/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "rolodex",
		Usage:   "Person resolution across contacts, meetings, calendar, and email",
		Version: Version,
		Commands: []*cli.Command{
			resolveCmd(database, cfg),
			enrichCmd(database, cfg),
			contactsCmd(database),
			seedCmd(database),
			webCmd(database, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// resolveCmd creates the resolve command.
func resolveCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a (possibly partial) name to a person",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "context", Aliases: []string{"c"}, Usage: "Free-text context hint"},
		},
		Action: func(c *cli.Context) error {
			name := strings.Join(c.Args().Slice(), " ")
			if name == "" {
				return outputError(errors.NewInvalidRequest("a name argument is required, e.g. rolodex resolve priya"))
			}

			engine := resolve.NewEngine(database, cfg)
			result := engine.Resolve(c.Context, person.Request{
				Name:        name,
				ContextHint: c.String("context"),
			})
			return outputJSON(result)
		},
	}
}

// enrichCmd creates the enrich command.
func enrichCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Fetch the recent-interaction timeline for one known person",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "contact-id", Usage: "CRM contact ID"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address for people not in the CRM"},
		},
		Action: func(c *cli.Context) error {
			engine := resolve.NewEngine(database, cfg)
			candidate, err := engine.EnrichContact(c.Context, c.String("contact-id"), c.String("email"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(candidate)
		},
	}
}

// contactsCmd creates the contacts command.
func contactsCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "contacts",
		Usage: "List directory contacts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Substring filter over name, email, and company"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum contacts to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Contacts to skip"},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			if limit < 1 || limit > 100 {
				return outputError(errors.NewInvalidRequest("limit must be between 1 and 100"))
			}

			contacts, total, err := db.ListContacts(c.Context, database, c.String("filter"), limit, c.Int("offset"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"contacts": contacts,
				"total":    total,
			})
		},
	}
}

// seedCmd creates the seed command.
func seedCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Import a YAML fixture of contacts, meetings, events, and mail accounts",
		ArgsUsage: "<fixture.yaml>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("a fixture path is required"))
			}

			fixture, err := seed.Load(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			stats, err := seed.Import(c.Context, database, fixture, time.Now())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"contacts":      stats.Contacts,
				"meetings":      stats.Meetings,
				"events":        stats.Events,
				"mail_accounts": stats.MailAccounts,
			})
		},
	}
}

// webCmd creates the web command.
func webCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the local web viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8750, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(database, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if rErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", rErr.Code, rErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
