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
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/poiesic/vectorize"
	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/config"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/report"
	"github.com/poiesic/vectorize/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.Run(args)
	if err == nil {
		return 0
	}
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		if msg := exit.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return exit.ExitCode()
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "vectorize",
		Usage:     "Ingest a directory of documents into a vector store",
		Writer:    stdout,
		ErrWriter: stderr,
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
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with secrets",
				Value: ".env",
			},
		},
		Before:         before,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Parse, split, embed and store every document under the root directory",
				Action: ingestCommand,
				Flags:  append(ingestFlags(), &cli.BoolFlag{Name: "progress", Usage: "Print batch progress to stderr"}),
			},
			{
				Name:      "query",
				Usage:     "Search a local badger store for chunks similar to the given text",
				ArgsUsage: "<text>",
				Action:    queryCommand,
				Flags: append(ingestFlags(),
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of hits", Value: 5},
					&cli.Float64Flag{Name: "min-similarity", Usage: "Minimum cosine similarity of a hit"},
				),
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration as TOML",
				Action: configCommand,
				Flags:  ingestFlags(),
			},
		},
	}
}

// ingestFlags override values of the configuration file.
func ingestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Root directory of the documents"},
		&cli.BoolFlag{Name: "skip-parse-errors", Usage: "Skip files that fail to parse instead of aborting"},
		&cli.DurationFlag{Name: "parse-timeout", Usage: "Maximum time to parse one file (0 = none)"},
		&cli.IntFlag{Name: "max-chunk-size", Usage: "Maximum chunk size in characters"},
		&cli.IntFlag{Name: "chunk-overlap", Usage: "Characters shared by consecutive chunks"},
		&cli.StringFlag{Name: "embedding-provider", Usage: "Embedding provider (openai, mock)"},
		&cli.StringFlag{Name: "embedding-host", Usage: "Embedding service host URL"},
		&cli.StringFlag{Name: "embedding-model", Usage: "Embedding model name"},
		&cli.IntFlag{Name: "batch-size", Usage: "Chunks per embedding call"},
		&cli.IntFlag{Name: "max-attempts", Usage: "Attempts per embedding call for transient failures"},
		&cli.DurationFlag{Name: "retry-delay", Usage: "Base delay for exponential backoff"},
		&cli.BoolFlag{Name: "normalize", Usage: "Normalize embeddings to unit length"},
		&cli.StringFlag{Name: "backend", Usage: "Vector store backend (badger, pgvector, milvus)"},
		&cli.StringFlag{Name: "db", Aliases: []string{"d"}, Usage: "Path to the BadgerDB database directory"},
		&cli.StringFlag{Name: "dsn", Usage: "PostgreSQL connection string for pgvector"},
		&cli.StringFlag{Name: "milvus-address", Usage: "Milvus server address"},
		&cli.StringFlag{Name: "index-name", Usage: "Vector store index name"},
		&cli.StringFlag{Name: "namespace", Aliases: []string{"n"}, Usage: "Vector store namespace"},
		&cli.IntFlag{Name: "upsert-batch-size", Usage: "Records per vector store call"},
		&cli.IntFlag{Name: "concurrency", Usage: "Batches in flight at once"},
		&cli.DurationFlag{Name: "call-timeout", Usage: "Maximum time for one embedding or upsert call (0 = none)"},
		&cli.DurationFlag{Name: "batch-delay", Usage: "Minimum delay between batch dispatches"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Print full error details on failure"},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return loadEnv(c)
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadEnv loads the .env file. A missing default file is not an error.
func loadEnv(c *cli.Context) error {
	path := c.String("env-file")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !c.IsSet("env-file") {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

// loadConfig builds the configuration from defaults, the optional file, the
// environment and the command flags, in increasing precedence.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	applyFlags(c, cfg)
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	setDuration := func(name string, dst *config.Duration) {
		if c.IsSet(name) {
			dst.Duration = c.Duration(name)
		}
	}

	setString("root", &cfg.Source.RootPath)
	setBool("skip-parse-errors", &cfg.Source.SkipParseErrors)
	setDuration("parse-timeout", &cfg.Source.ParseTimeout)
	setInt("max-chunk-size", &cfg.Chunking.MaxChunkSize)
	setInt("chunk-overlap", &cfg.Chunking.ChunkOverlap)
	setString("embedding-provider", &cfg.Embedding.Provider)
	setString("embedding-host", &cfg.Embedding.Host)
	setString("embedding-model", &cfg.Embedding.Model)
	setInt("batch-size", &cfg.Embedding.BatchSize)
	setInt("max-attempts", &cfg.Embedding.MaxAttempts)
	setDuration("retry-delay", &cfg.Embedding.RetryDelay)
	setBool("normalize", &cfg.Embedding.Normalize)
	setString("backend", &cfg.VectorStore.Backend)
	setString("db", &cfg.VectorStore.Path)
	setString("dsn", &cfg.VectorStore.DSN)
	setString("milvus-address", &cfg.VectorStore.Address)
	setString("index-name", &cfg.VectorStore.IndexName)
	setString("namespace", &cfg.VectorStore.Namespace)
	setInt("upsert-batch-size", &cfg.VectorStore.UpsertBatchSize)
	setInt("concurrency", &cfg.Pipeline.Concurrency)
	setDuration("call-timeout", &cfg.Pipeline.CallTimeout)
	setDuration("batch-delay", &cfg.Pipeline.BatchDelay)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []vectorize.Option{vectorize.WithLogger(slog.Default())}
	if c.Bool("progress") {
		opts = append(opts, vectorize.WithProgress(c.App.ErrWriter))
	}

	outcome := vectorize.Ingest(ctx, cfg, opts...)
	if outcome.Success {
		if err := report.Write(c.App.Writer, outcome, false); err != nil {
			return err
		}
		return nil
	}

	if err := report.Write(c.App.ErrWriter, outcome, c.Bool("verbose")); err != nil {
		return err
	}
	return cli.Exit("", 1)
}

func queryCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		return cli.Exit("query text is required", 1)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if cfg.VectorStore.Backend != config.BackendBadger {
		return cli.Exit(fmt.Sprintf("query supports the %s backend only", config.BackendBadger), 1)
	}

	embedder, err := vectorize.NewEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	ctx := context.Background()
	vector, err := embedder.EmbedText(ctx, text)
	if err != nil {
		return err
	}

	sink, err := badger.Open(cfg.VectorStore.Path)
	if err != nil {
		return err
	}
	defer sink.Close()

	results, err := sink.(*badger.Sink).FindSimilar(ctx, cfg.VectorStore.Namespace,
		ai.NormalizeVector(vector), float32(c.Float64("min-similarity")), c.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: [%0.3f] %s (%s#%s)\n", i, hit.Score,
			strings.Join(strings.Fields(hit.Record.Text), " "),
			hit.Record.Metadata[core.MetaSource], hit.Record.Metadata[core.MetaChunkIndex])
	}
	return nil
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if cfg.Embedding.APIKey != "" {
		cfg.Embedding.APIKey = "<redacted>"
	}
	return cfg.Write(c.App.Writer)
}
