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
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "larder",
		Usage: "Recipe corpus preparation and parent/child retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file holding the API key",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "shard-dir",
				Usage: "Directory of scraped *.json shards",
			},
			&cli.StringFlag{
				Name:  "cleaned-file",
				Usage: "Path of the cleaned corpus file",
			},
			&cli.StringFlag{
				Name:    "index-dir",
				Aliases: []string{"d"},
				Usage:   "Path to the index database directory",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnv(c); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "preprocess",
				Usage:  "Merge shards, normalize and deduplicate into the cleaned corpus",
				Action: preprocessCommand,
				Flags: []cli.Flag{
					thresholdFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rewrite the cleaned corpus even if it exists",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Embed the cleaned corpus and rebuild the index",
				Action: indexCommand,
			},
			{
				Name:      "query",
				Usage:     "Retrieve recipes for a question",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of child chunks to search (defaults to retrieval.k)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print intermediate retrieval steps",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Ask questions interactively",
				Action: chatCommand,
			},
			{
				Name:   "run",
				Usage:  "Preprocess, build or load the index, then chat",
				Action: runCommand,
				Flags: []cli.Flag{
					thresholdFlag(),
					&cli.BoolFlag{
						Name:  "rebuild-db",
						Usage: "Rebuild the index even if one exists",
					},
					&cli.BoolFlag{
						Name:  "force-preprocess",
						Usage: "Rewrite the cleaned corpus even if it exists",
					},
					&cli.StringFlag{
						Name:  "until-step",
						Usage: "Stop after this step (preprocess, index, run)",
						Value: stepRun,
					},
				},
			},
		},
	}
}

func thresholdFlag() cli.Flag {
	return &cli.Float64Flag{
		Name:  "threshold",
		Usage: "Title similarity above which records are duplicates (defaults to dedup.threshold)",
	}
}

// loadEnv loads the .env file. A missing default file is not an error.
func loadEnv(c *cli.Context) error {
	err := godotenv.Load(c.String("env-file"))
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !c.IsSet("env-file") {
		return nil
	}
	return fmt.Errorf("failed to load env file: %w", err)
}

func setupLogger(c *cli.Context) error {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newLogger(levelStr string) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}
