package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CrediTrust/complaint-insights/engine/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("embed model: %q", cfg.Ollama.EmbedModel)
	}
	if cfg.Chunker.ChunkSize != 500 || cfg.Chunker.Overlap != 50 {
		t.Errorf("chunker defaults: %+v", cfg.Chunker)
	}
	if cfg.Query.TopK != 5 {
		t.Errorf("top_k default: %d", cfg.Query.TopK)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
ollama:
  embed_model: custom-embed
query:
  top_k: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.EmbedModel != "custom-embed" {
		t.Errorf("embed model: %q", cfg.Ollama.EmbedModel)
	}
	if cfg.Query.TopK != 3 {
		t.Errorf("top_k: %d", cfg.Query.TopK)
	}
	if cfg.Qdrant.Alias != "complaints" {
		t.Errorf("alias default: %q", cfg.Qdrant.Alias)
	}
	if cfg.Ollama.TimeoutSecs != 120 {
		t.Errorf("timeout default: %d", cfg.Ollama.TimeoutSecs)
	}
}

func TestLoadRejectsOverlapGEChunkSize(t *testing.T) {
	path := writeConfig(t, `
chunker:
  chunk_size: 100
  overlap: 100
`)
	_, err := Load(path)
	if !errors.Is(err, domain.ErrInvalidChunkParams) {
		t.Fatalf("expected ErrInvalidChunkParams, got %v", err)
	}
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Param != "chunker.overlap" {
		t.Fatalf("expected chunker.overlap ConfigError, got %v", err)
	}
}

func TestLoadRejectsZeroTopK(t *testing.T) {
	path := writeConfig(t, `
query:
  top_k: -1
`)
	_, err := Load(path)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Param != "query.top_k" {
		t.Fatalf("expected query.top_k ConfigError, got %v", err)
	}
}

func TestEnvOverridesEndpoint(t *testing.T) {
	t.Setenv("QDRANT_ADDR", "qdrant.internal:6334")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Qdrant.Addr != "qdrant.internal:6334" {
		t.Errorf("env override not applied: %q", cfg.Qdrant.Addr)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "ollama: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
