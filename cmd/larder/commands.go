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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/larder"
	"github.com/poiesic/larder/config"
	"github.com/poiesic/larder/conversation"
	"github.com/poiesic/larder/corpus"
	"github.com/poiesic/larder/search"
	"github.com/urfave/cli/v2"
)

// Steps accepted by run --until-step.
const (
	stepPreprocess = "preprocess"
	stepIndex      = "index"
	stepRun        = "run"
)

var errMissingAPIKey = errors.New("no API key: set LARDER_API_KEY or UPSTAGE_API_KEY")

func parseStep(step string) (string, error) {
	switch step {
	case stepPreprocess, stepIndex, stepRun:
		return step, nil
	}
	return "", fmt.Errorf("invalid step %q: must be one of preprocess, index, run", step)
}

func apiKey() string {
	if key := os.Getenv("LARDER_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("UPSTAGE_API_KEY")
}

// loadConfig reads the config file, if any, and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("shard-dir") {
		cfg.Corpus.ShardDir = c.String("shard-dir")
	}
	if c.IsSet("cleaned-file") {
		cfg.Corpus.CleanedFile = c.String("cleaned-file")
	}
	if c.IsSet("index-dir") {
		cfg.Index.Path = c.String("index-dir")
	}
	if c.IsSet("threshold") {
		cfg.Dedup.Threshold = c.Float64("threshold")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The file's log level applies unless the flag was given.
	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(logger)
	}
	return cfg, nil
}

func openEngine(c *cli.Context, cfg *config.Config) (*larder.Engine, error) {
	key := apiKey()
	if key == "" {
		return nil, errMissingAPIKey
	}
	engine, err := larder.NewEngine(cfg,
		larder.WithAPIKey(key),
		larder.WithProgress(c.App.ErrWriter),
		larder.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return engine, nil
}

// openIndex makes the engine ready, rewording the not-found case for the CLI.
func openIndex(ctx context.Context, engine *larder.Engine, rebuild bool) error {
	_, err := engine.Open(ctx, rebuild)
	if larder.IsIndexNotFound(err) {
		return fmt.Errorf("%w: run `larder index` or `larder run --rebuild-db` first", err)
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printReport(w io.Writer, cfg *config.Config, report *corpus.Report) {
	if report == nil {
		fmt.Fprintf(w, "Cleaned corpus %s exists, skipping preprocessing\n", cfg.Corpus.CleanedFile)
		return
	}
	fmt.Fprintf(w, "Loaded %d records, removed %d duplicates, wrote %d to %s\n",
		report.Loaded, report.Removed, report.Written, cfg.Corpus.CleanedFile)
}

func preprocessCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	report, err := larder.Preprocess(cfg, c.Bool("force"), slog.Default())
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}
	printReport(c.App.Writer, cfg, report)
	return nil
}

func indexCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(c.App.ErrWriter, "Corpus: %s\n", cfg.Corpus.CleanedFile)
	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", cfg.Index.Path)
	fmt.Fprintf(c.App.ErrWriter, "Passage model: %s\n", cfg.Embedding.PassageModel)
	fmt.Fprintln(c.App.ErrWriter)

	report, err := engine.Build(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d records as %d parents and %d children in %s\n",
		report.Records, report.Parents, report.Children, report.Duration)
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a question is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	k := cfg.Retrieval.K
	if c.IsSet("k") {
		k = c.Int("k")
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := openIndex(ctx, engine, false); err != nil {
		return err
	}

	var monitor search.RetrievalMonitor
	if c.Bool("verbose") {
		monitor = newPrintingMonitor(c.App.ErrWriter)
	}
	results, err := engine.Retriever().RetrieveWithMonitor(ctx, query, k, monitor)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d recipes\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: %s [%0.3f]\n   %s\n", i+1, hit.Document.Metadata.Title, hit.Score, hit.Document.Metadata.URL)
	}
	return nil
}

func chatCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := openIndex(ctx, engine, false); err != nil {
		return err
	}
	return startChat(ctx, c, engine)
}

func runCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	step, err := parseStep(c.String("until-step"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	report, err := larder.Preprocess(cfg, c.Bool("force-preprocess"), slog.Default())
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}
	printReport(c.App.ErrWriter, cfg, report)
	if step == stepPreprocess {
		return nil
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := openIndex(ctx, engine, c.Bool("rebuild-db")); err != nil {
		return err
	}
	if step == stepIndex {
		return nil
	}
	return startChat(ctx, c, engine)
}

func startChat(ctx context.Context, c *cli.Context, engine *larder.Engine) error {
	chat, err := engine.NewChat()
	if err != nil {
		return err
	}
	sessions := conversation.NewSessions(conversation.DefaultMaxMessages)
	return chatLoop(ctx, c.App.Reader, c.App.Writer, chat, sessions)
}
