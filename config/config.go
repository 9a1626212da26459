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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Vector store backends.
const (
	BackendBadger   = "badger"
	BackendPgvector = "pgvector"
	BackendMilvus   = "milvus"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey        = "OPENAI_API_KEY"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvMilvusAddress = "MILVUS_ADDRESS"
)

// Config is the configuration of one ingestion run.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
}

// SourceConfig selects the documents to ingest.
type SourceConfig struct {
	RootPath        string   `toml:"root_path"`
	SkipParseErrors bool     `toml:"skip_parse_errors"`
	ParseTimeout    Duration `toml:"parse_timeout"`
}

// ChunkingConfig controls how documents are split. Sizes count Unicode
// code points.
type ChunkingConfig struct {
	MaxChunkSize int      `toml:"max_chunk_size"`
	ChunkOverlap int      `toml:"chunk_overlap"`
	Separators   []string `toml:"separators,omitempty"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider    string   `toml:"provider"`
	Host        string   `toml:"host"`
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key,omitempty"`
	BatchSize   int      `toml:"batch_size"`
	MaxAttempts int      `toml:"max_attempts"`
	RetryDelay  Duration `toml:"retry_delay"`
	Normalize   bool     `toml:"normalize"`
}

// VectorStoreConfig selects the vector store and where records go.
type VectorStoreConfig struct {
	Backend         string `toml:"backend"`
	IndexName       string `toml:"index_name"`
	Namespace       string `toml:"namespace"`
	Path            string `toml:"path"`
	DSN             string `toml:"dsn,omitempty"`
	Address         string `toml:"address,omitempty"`
	UpsertBatchSize int    `toml:"upsert_batch_size"`
}

// PipelineConfig tunes batch dispatch.
type PipelineConfig struct {
	Concurrency int      `toml:"concurrency"`
	CallTimeout Duration `toml:"call_timeout"`
	BatchDelay  Duration `toml:"batch_delay"`
}

// Duration is a time.Duration written as a string such as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			RootPath: "docs",
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 2000,
			ChunkOverlap: 400,
		},
		Embedding: EmbeddingConfig{
			Provider:    ProviderOpenAI,
			Host:        "https://api.openai.com/v1",
			Model:       "text-embedding-ada-002",
			BatchSize:   50,
			MaxAttempts: 1,
			RetryDelay:  Duration{time.Second},
		},
		VectorStore: VectorStoreConfig{
			Backend:         BackendBadger,
			IndexName:       "vectorize",
			Namespace:       "default",
			Path:            "vectorize.db",
			UpsertBatchSize: 100,
		},
		Pipeline: PipelineConfig{
			Concurrency: 1,
		},
	}
}

// Load reads the TOML file at path over the defaults. Keys that do not map
// to a configuration field are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, strict.String())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML to w.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// ApplyEnv fills secrets that are not set in the file from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = getenv(EnvAPIKey)
	}
	if c.VectorStore.DSN == "" {
		c.VectorStore.DSN = getenv(EnvDatabaseURL)
	}
	if c.VectorStore.Address == "" {
		c.VectorStore.Address = getenv(EnvMilvusAddress)
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Source.RootPath != "", "source.root_path is required")
	check(c.Source.ParseTimeout.Duration >= 0, "source.parse_timeout must not be negative")

	check(c.Chunking.MaxChunkSize > 0, "chunking.max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	check(c.Chunking.ChunkOverlap >= 0, "chunking.chunk_overlap must not be negative, got %d", c.Chunking.ChunkOverlap)
	check(c.Chunking.ChunkOverlap < c.Chunking.MaxChunkSize,
		"chunking.chunk_overlap (%d) must be less than chunking.max_chunk_size (%d)",
		c.Chunking.ChunkOverlap, c.Chunking.MaxChunkSize)

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		check(c.Embedding.Host != "", "embedding.host is required")
		check(c.Embedding.Model != "", "embedding.model is required")
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownProvider, c.Embedding.Provider))
	}
	check(c.Embedding.BatchSize > 0, "embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	check(c.Embedding.MaxAttempts > 0, "embedding.max_attempts must be positive, got %d", c.Embedding.MaxAttempts)
	check(c.Embedding.RetryDelay.Duration >= 0, "embedding.retry_delay must not be negative")

	switch c.VectorStore.Backend {
	case BackendBadger:
		check(c.VectorStore.Path != "", "vector_store.path is required for the badger backend")
	case BackendPgvector:
		check(c.VectorStore.DSN != "", "vector_store.dsn or %s is required for the pgvector backend", EnvDatabaseURL)
	case BackendMilvus:
		check(c.VectorStore.Address != "", "vector_store.address or %s is required for the milvus backend", EnvMilvusAddress)
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBackend, c.VectorStore.Backend))
	}
	check(c.VectorStore.IndexName != "", "vector_store.index_name is required")
	check(c.VectorStore.Namespace != "", "vector_store.namespace is required")
	check(c.VectorStore.UpsertBatchSize > 0, "vector_store.upsert_batch_size must be positive, got %d", c.VectorStore.UpsertBatchSize)

	check(c.Pipeline.Concurrency > 0, "pipeline.concurrency must be positive, got %d", c.Pipeline.Concurrency)
	check(c.Pipeline.CallTimeout.Duration >= 0, "pipeline.call_timeout must not be negative")
	check(c.Pipeline.BatchDelay.Duration >= 0, "pipeline.batch_delay must not be negative")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
