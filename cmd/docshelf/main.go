// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docshelf",
		Usage: "Document library with LLM-assisted ingestion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to YAML configuration file",
						Required: true,
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Ingest a PDF or EML file into the library",
				ArgsUsage: "FILE",
				Action:    addCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:  "readers",
						Usage: "Comma-separated reader identities to run",
					},
					&cli.StringFlag{
						Name:  "shelves",
						Usage: "Comma-separated shelf IDs for the new document",
					},
					&cli.StringFlag{
						Name:  "reader-host",
						Usage: "OpenAI-compatible chat API host",
					},
					&cli.DurationFlag{
						Name:  "reader-timeout",
						Usage: "Per-reader invocation timeout",
						Value: 10 * time.Minute,
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List library documents",
				Action: listCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:  "shelf",
						Usage: "Only documents on this shelf (use __unsorted__ for unshelved)",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order: uploaded, title or pages",
						Value: "uploaded",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search library documents",
				ArgsUsage: "TERM",
				Action:    searchCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:  "field",
						Usage: "Search field: all, title, author, subject, tags, readers, readings or text",
						Value: "all",
					},
					&cli.StringFlag{
						Name:  "shelf",
						Usage: "Only documents on this shelf",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (0 = all)",
					},
				),
			},
			{
				Name:      "export",
				Usage:     "Write a document's markdown rendering to stdout",
				ArgsUsage: "DOCUMENT_ID",
				Action:    exportCommand,
				Flags:     libraryFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document, its text and archived source",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     libraryFlags(),
			},
			{
				Name:  "shelves",
				Usage: "Manage shelves",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List shelves with document counts",
						Action: shelvesListCommand,
						Flags:  libraryFlags(),
					},
					{
						Name:      "create",
						Usage:     "Create a shelf",
						ArgsUsage: "NAME",
						Action:    shelvesCreateCommand,
						Flags: append(libraryFlags(),
							&cli.StringFlag{
								Name:  "name-ja",
								Usage: "Japanese display name",
							},
						),
					},
					{
						Name:      "rename",
						Usage:     "Rename a shelf (the ID is re-derived from the new name)",
						ArgsUsage: "SHELF_ID NEW_NAME",
						Action:    shelvesRenameCommand,
						Flags: append(libraryFlags(),
							&cli.StringFlag{
								Name:  "name-ja",
								Usage: "New Japanese display name",
							},
						),
					},
					{
						Name:      "delete",
						Usage:     "Delete a shelf and strip its memberships",
						ArgsUsage: "SHELF_ID",
						Action:    shelvesDeleteCommand,
						Flags:     libraryFlags(),
					},
				},
			},
			{
				Name:   "reread",
				Usage:  "Re-run one reader over every stored document",
				Action: rereadCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:     "reader",
						Usage:    "Reader identity to re-run",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "reader-host",
						Usage: "OpenAI-compatible chat API host",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per document",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "read-timeout",
						Usage: "Timeout for a single reader call",
						Value: 10 * time.Minute,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func libraryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the library database directory",
			Required: true,
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
