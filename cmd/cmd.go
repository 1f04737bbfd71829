// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func linkInputFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Aliases:  []string{"u"},
			Usage:    "Affiliate link URL",
			Required: required,
		},
		&cli.StringFlag{
			Name:     "title",
			Aliases:  []string{"t"},
			Usage:    "Link title",
			Required: required,
		},
		&cli.StringFlag{
			Name:    "page",
			Aliases: []string{"p"},
			Usage:   "Page the link appears on",
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a default configuration file",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your session and profile",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password (read from LINKGUARD_PASSWORD when unset)", Sources: cli.EnvVars("LINKGUARD_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password (read from LINKGUARD_PASSWORD when unset)", Sources: cli.EnvVars("LINKGUARD_PASSWORD")},
					&cli.StringFlag{Name: "website", Usage: "Your website"},
				},
				Action: r.AuthSignup,
			},
			{
				Name:  "forgot-password",
				Usage: "Email yourself a password reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				},
				Action: r.AuthForgotPassword,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:    "whoami",
				Aliases: []string{"status"},
				Usage:   "Show the signed-in user",
				Flags:   jsonFlags(),
				Action:  r.AuthWhoami,
			},
			{
				Name:  "profile",
				Usage: "Update your profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New display name"},
					&cli.StringFlag{Name: "email", Usage: "New email"},
					&cli.StringFlag{Name: "website", Usage: "New website"},
				},
				Action: r.AuthProfile,
			},
		},
	}
}

// linksCommand handles link management
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "links",
		Aliases: []string{"link", "l"},
		Usage:   "Manage monitored links",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List links",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Only show links with this status (active, warning, broken)"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Filter by title, URL or page"},
				}, jsonFlags()...),
				Action: r.LinksList,
			},
			{
				Name:   "add",
				Usage:  "Add a link",
				Flags:  linkInputFlags(true),
				Action: r.LinksAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit a link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     linkInputFlags(false),
				Action:    r.LinksEdit,
			},
			{
				Name:      "check",
				Usage:     "Re-check one link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.LinksCheck,
			},
			{
				Name:   "check-all",
				Usage:  "Re-check every link",
				Action: r.LinksCheckAll,
			},
			{
				Name:      "rm",
				Aliases:   []string{"delete"},
				Usage:     "Delete one or more links",
				ArgsUsage: "<id> [id...]",
				Action:    r.LinksRemove,
			},
			{
				Name:      "upload",
				Usage:     "Bulk import links from a CSV file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     jsonFlags(),
				Action:    r.LinksUpload,
			},
			{
				Name:  "uploads",
				Usage: "Show recent bulk uploads made from this machine",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of uploads to show", Value: 10},
				},
				Action: r.LinksUploads,
			},
			{
				Name:  "export",
				Usage: "Export links to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, json, markdown or txt", Value: "csv"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (default: links_export.<ext>)"},
					&cli.BoolFlag{Name: "local", Usage: "Render from the local link list instead of the server export"},
				},
				Action: r.LinksExport,
			},
			{
				Name:      "suggest",
				Usage:     "Suggest replacements for a broken link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.LinksSuggest,
			},
			{
				Name:      "fix",
				Usage:     "Replace a link with a suggestion",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "suggestion", Usage: "Suggestion id (default: the most confident suggestion)"},
				},
				Action: r.LinksFix,
			},
		},
	}
}

// alertsCommand handles alert operations
func alertsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "alerts",
		Aliases: []string{"alert", "a"},
		Usage:   "Manage alerts and notification settings",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List alerts",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "unread", Usage: "Only show unread alerts"},
				}, jsonFlags()...),
				Action: r.AlertsList,
			},
			{
				Name:      "read",
				Usage:     "Mark an alert as read",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.AlertsRead,
			},
			{
				Name:   "read-all",
				Usage:  "Mark every alert as read",
				Action: r.AlertsReadAll,
			},
			{
				Name:      "rm",
				Aliases:   []string{"delete"},
				Usage:     "Delete an alert",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.AlertsRemove,
			},
			{
				Name:  "settings",
				Usage: "Show or change notification settings",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{Name: "enable", Usage: "Settings to turn on (emailNotifications, brokenLinks, priceChanges, monthlyReports)"},
					&cli.StringSliceFlag{Name: "disable", Usage: "Settings to turn off"},
				}, jsonFlags()...),
				Action: r.AlertsSettings,
			},
		},
	}
}

// analyticsCommand handles analytics reports
func analyticsCommand(r *Runner) *cli.Command {
	periodFlag := &cli.StringFlag{Name: "period", Usage: "Revenue period (e.g. 7d, 30d, 90d)", Value: "30d"}
	daysFlag := &cli.IntFlag{Name: "days", Usage: "Number of days of history", Value: 30}

	return &cli.Command{
		Name:    "analytics",
		Aliases: []string{"stats"},
		Usage:   "Link health and revenue analytics",
		Commands: []*cli.Command{
			{
				Name:   "dashboard",
				Usage:  "Show link health summary",
				Flags:  jsonFlags(),
				Action: r.AnalyticsDashboard,
			},
			{
				Name:      "link",
				Usage:     "Show clicks, revenue and status history for one link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.AnalyticsLink,
			},
			{
				Name:   "revenue",
				Usage:  "Show revenue lost to broken links",
				Flags:  append([]cli.Flag{periodFlag}, jsonFlags()...),
				Action: r.AnalyticsRevenue,
			},
			{
				Name:   "broken",
				Usage:  "Show daily broken link counts",
				Flags:  append([]cli.Flag{daysFlag}, jsonFlags()...),
				Action: r.AnalyticsBroken,
			},
			{
				Name:   "overview",
				Usage:  "Fetch dashboard, revenue and history together",
				Flags:  append([]cli.Flag{periodFlag, daysFlag}, jsonFlags()...),
				Action: r.AnalyticsOverview,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive link dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "upload", Usage: "CSV file to bulk upload on start"},
		},
		Action: r.TUI,
	}
}
