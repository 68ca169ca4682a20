// Package config loads application configuration from a YAML file with an
// optional .env overlay for connection endpoints. Missing files fall back to
// defaults so every binary runs out of the box against a local stack.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/CrediTrust/complaint-insights/engine/domain"
)

// OllamaConfig holds connection details for the local model server.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	EmbedModel  string `yaml:"embed_model"`
	GenModel    string `yaml:"gen_model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	// EmbedRatePerSec throttles embedding calls during ingestion. Zero
	// disables throttling.
	EmbedRatePerSec float64 `yaml:"embed_rate_per_sec"`
}

// QdrantConfig contains connection details for the vector store.
type QdrantConfig struct {
	Addr  string `yaml:"addr"`
	Alias string `yaml:"alias"`
}

// ChunkerConfig configures narrative splitting.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// IngestConfig configures the batch index build.
type IngestConfig struct {
	CSVPath    string `yaml:"csv_path"`
	SampleSize int    `yaml:"sample_size"`
	Seed       int64  `yaml:"seed"`
	BatchSize  int    `yaml:"batch_size"`
	Workers    int    `yaml:"workers"`
	Dimensions int    `yaml:"dimensions"`
	ReportDir  string `yaml:"report_dir"`
}

// QueryConfig configures the retrieval side.
type QueryConfig struct {
	TopK              int `yaml:"top_k"`
	MaxContextChars   int `yaml:"max_context_chars"`
	SearchTimeoutSecs int `yaml:"search_timeout_secs"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	CORSOrigin  string `yaml:"cors_origin"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Ollama  OllamaConfig  `yaml:"ollama"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
	Chunker ChunkerConfig `yaml:"chunker"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Query   QueryConfig   `yaml:"query"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// Timeout returns the model call timeout as a duration.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SearchTimeout returns the search timeout as a duration.
func (c QueryConfig) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSecs) * time.Second
}

// Load reads a config from path, layering a .env file (if present in the
// working directory) and environment variables over the YAML values. A
// missing config file yields defaults.
func Load(path string) (*AppConfig, error) {
	// Errors from a missing .env are expected; a present-but-broken one
	// should not be silently skipped.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects parameter combinations that would misbehave at runtime.
func (c *AppConfig) Validate() error {
	if c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return domain.NewConfigError("chunker.overlap", fmt.Sprintf("%d", c.Chunker.Overlap),
			domain.ErrInvalidChunkParams)
	}
	if c.Chunker.ChunkSize <= 0 {
		return domain.NewConfigError("chunker.chunk_size", fmt.Sprintf("%d", c.Chunker.ChunkSize),
			domain.ErrInvalidChunkParams)
	}
	if c.Query.TopK < 1 {
		return domain.NewConfigError("query.top_k", fmt.Sprintf("%d", c.Query.TopK),
			errors.New("must be at least 1"))
	}
	if c.Ingest.Dimensions <= 0 {
		return domain.NewConfigError("ingest.dimensions", fmt.Sprintf("%d", c.Ingest.Dimensions),
			errors.New("must be positive"))
	}
	return nil
}

// applyEnvOverrides lets deployment environments replace endpoints without
// editing the YAML file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("QDRANT_ADDR"); v != "" {
		cfg.Qdrant.Addr = v
	}
	if v := os.Getenv("COMPLAINTS_CSV"); v != "" {
		cfg.Ingest.CSVPath = v
	}
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			EmbedModel:  "nomic-embed-text",
			GenModel:    "llama3.2:1b",
			TimeoutSecs: 120,
		},
		Qdrant: QdrantConfig{
			Addr:  "localhost:6334",
			Alias: "complaints",
		},
		Chunker: ChunkerConfig{ChunkSize: 500, Overlap: 50},
		Ingest: IngestConfig{
			CSVPath:    "data/complaints.csv",
			SampleSize: 12000,
			Seed:       42,
			BatchSize:  100,
			Workers:    4,
			Dimensions: 768,
			ReportDir:  "reports",
		},
		Query: QueryConfig{TopK: 5, MaxContextChars: 6000, SearchTimeoutSecs: 10},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			MetricsAddr: ":9091",
			CORSOrigin:  "*",
		},
	}
}

// applyDefaults fills zero values after a partial YAML file.
func applyDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = def.Ollama.BaseURL
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = def.Ollama.EmbedModel
	}
	if cfg.Ollama.GenModel == "" {
		cfg.Ollama.GenModel = def.Ollama.GenModel
	}
	if cfg.Ollama.TimeoutSecs == 0 {
		cfg.Ollama.TimeoutSecs = def.Ollama.TimeoutSecs
	}
	if cfg.Qdrant.Addr == "" {
		cfg.Qdrant.Addr = def.Qdrant.Addr
	}
	if cfg.Qdrant.Alias == "" {
		cfg.Qdrant.Alias = def.Qdrant.Alias
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = def.Chunker.ChunkSize
	}
	if cfg.Ingest.CSVPath == "" {
		cfg.Ingest.CSVPath = def.Ingest.CSVPath
	}
	if cfg.Ingest.SampleSize == 0 {
		cfg.Ingest.SampleSize = def.Ingest.SampleSize
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = def.Ingest.BatchSize
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = def.Ingest.Workers
	}
	if cfg.Ingest.Dimensions == 0 {
		cfg.Ingest.Dimensions = def.Ingest.Dimensions
	}
	if cfg.Ingest.ReportDir == "" {
		cfg.Ingest.ReportDir = def.Ingest.ReportDir
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = def.Query.TopK
	}
	if cfg.Query.MaxContextChars == 0 {
		cfg.Query.MaxContextChars = def.Query.MaxContextChars
	}
	if cfg.Query.SearchTimeoutSecs == 0 {
		cfg.Query.SearchTimeoutSecs = def.Query.SearchTimeoutSecs
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = def.HTTP.Addr
	}
	if cfg.HTTP.MetricsAddr == "" {
		cfg.HTTP.MetricsAddr = def.HTTP.MetricsAddr
	}
	if cfg.HTTP.CORSOrigin == "" {
		cfg.HTTP.CORSOrigin = def.HTTP.CORSOrigin
	}
}
