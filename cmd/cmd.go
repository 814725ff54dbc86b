// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles the gallery session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the gallery session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in and store the session token",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				}, credentialFlags()...),
				Action: r.AuthRegister,
			},
			{
				Name:   "status",
				Usage:  "Show the logged in account",
				Action: r.AuthStatus,
			},
		},
	}
}

// photosCommand handles photo listing, detail and moderation
func photosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "photos",
		Aliases: []string{"p"},
		Usage:   "Browse and manage photos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List photos, one page at a time",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "pages", Usage: "Number of pages to fetch", Value: 1},
					jsonFlag(),
				}, filterFlags()...),
				Action: r.PhotosList,
			},
			{
				Name:      "show",
				Usage:     "Show a photo with its comments",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.PhotosShow,
			},
			{
				Name:      "open",
				Usage:     "Open a photo's image in the browser",
				ArgsUsage: "<id>",
				Action:    r.PhotosOpen,
			},
			{
				Name:      "like",
				Usage:     "Toggle a like",
				ArgsUsage: "<id>",
				Action:    r.PhotosLike,
			},
			{
				Name:      "favorite",
				Aliases:   []string{"fav"},
				Usage:     "Toggle a favorite",
				ArgsUsage: "<id>",
				Action:    r.PhotosFavorite,
			},
			{
				Name:      "comment",
				Usage:     "Comment on a photo",
				ArgsUsage: "<id> <text...>",
				Action:    r.PhotosComment,
			},
			{
				Name:      "edit",
				Usage:     "Edit a photo's metadata; omitted fields keep their value",
				ArgsUsage: "<id>",
				Flags:     metadataFlags(),
				Action:    r.PhotosEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a photo",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip confirmation"},
				},
				Action: r.PhotosDelete,
			},
			{
				Name:  "export",
				Usage: "Export every photo matching the filters",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.BoolFlag{Name: "images", Usage: "Download full-size images"},
					&cli.IntFlag{Name: "max-pages", Usage: "Stop after this many pages (0 for all)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent image downloads (default from config)"},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Image downloads per second (default from config)"},
				}, filterFlags()...),
				Action: r.PhotosExport,
			},
		},
	}
}

// uploadCommand handles multi-file photo uploads
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Aliases:   []string{"up"},
		Usage:     "Upload photos one file at a time",
		ArgsUsage: "<file...>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "YAML manifest listing files and metadata"},
			jsonFlag(),
		}, metadataFlags()...),
		Action: r.Upload,
	}
}

// searchCommand handles searches and the recent-search history
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search photos and record the query in the history",
		ArgsUsage: "<text...>",
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Search,
		Commands: []*cli.Command{
			{
				Name:      "suggest",
				Usage:     "Show suggestions for partial input",
				ArgsUsage: "[text...]",
				Action:    r.SearchSuggest,
			},
			{
				Name:   "history",
				Usage:  "List recent searches",
				Action: r.SearchHistory,
			},
			{
				Name:   "clear",
				Usage:  "Clear recent searches",
				Action: r.SearchClear,
			},
		},
	}
}

// carouselCommand handles home page carousel administration
func carouselCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "carousel",
		Usage: "Manage the home page carousel",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List carousel images",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "admin", Usage: "Use the admin listing"},
					jsonFlag(),
				},
				Action: r.CarouselList,
			},
			{
				Name:      "add",
				Usage:     "Add images, up to the carousel limit",
				ArgsUsage: "<file...>",
				Action:    r.CarouselAdd,
			},
			{
				Name:      "replace",
				Usage:     "Replace the image of an item",
				ArgsUsage: "<id> <file>",
				Action:    r.CarouselReplace,
			},
			{
				Name:      "sort",
				Usage:     "Reorder the carousel",
				ArgsUsage: "<id...>",
				Action:    r.CarouselSort,
			},
			{
				Name:      "delete",
				Usage:     "Remove an item",
				ArgsUsage: "<id>",
				Action:    r.CarouselDelete,
			},
		},
	}
}

// videosCommand handles home page video administration
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "videos",
		Usage: "Manage home page videos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List home videos",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "admin", Usage: "Use the admin listing"},
					jsonFlag(),
				},
				Action: r.VideosList,
			},
			{
				Name:      "add",
				Usage:     "Upload videos; the file name becomes the title",
				ArgsUsage: "<file...>",
				Action:    r.VideosAdd,
			},
			{
				Name:      "delete",
				Usage:     "Remove a video",
				ArgsUsage: "<id>",
				Action:    r.VideosDelete,
			},
		},
	}
}

// profileCommand handles the logged in account
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show and manage your account",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show account details and stats",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:   "photos",
				Usage:  "List your photos",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfilePhotos,
			},
			{
				Name:  "password",
				Usage: "Change your password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "old", Usage: "Current password (prompted when omitted)"},
					&cli.StringFlag{Name: "new", Usage: "New password, at least 6 characters (prompted when omitted)"},
				},
				Action: r.ProfilePassword,
			},
			{
				Name:      "username",
				Usage:     "Change your username",
				ArgsUsage: "<name>",
				Action:    r.ProfileUsername,
			},
		},
	}
}

// diagnosticsCommand exposes locally recorded diagnostics
func diagnosticsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diagnostics",
		Usage: "Inspect local diagnostics",
		Commands: []*cli.Command{
			{
				Name:  "fills",
				Usage: "List viewport auto-fill events",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of events", Value: 20},
					jsonFlag(),
				},
				Action: r.DiagnosticsFills,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive gallery; files given as arguments are uploaded first",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Initial search"},
			&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "YAML upload manifest"},
		},
		Action: r.TUI,
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username (prompted when omitted)"},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (prompted when omitted)"},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text search"},
		&cli.StringFlag{Name: "category", Usage: "Category filter"},
		&cli.StringFlag{Name: "tag", Usage: "Tag filter"},
		&cli.IntFlag{Name: "page-size", Usage: "Photos per page (default from config)"},
	}
}

func metadataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Photo title"},
		&cli.StringFlag{Name: "description", Usage: "Photo description"},
		&cli.StringFlag{Name: "camera", Usage: "Camera model"},
		&cli.StringFlag{Name: "settings", Usage: "Exposure settings"},
		&cli.StringFlag{Name: "category", Usage: "Category"},
		&cli.StringFlag{Name: "tags", Usage: "Comma separated tags"},
	}
}
