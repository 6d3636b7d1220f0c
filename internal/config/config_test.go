package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.LLM.Provider != "openai-compat" {
		t.Errorf("expected openai-compat, got %s", cfg.LLM.Provider)
	}
	if cfg.VectorStore.Backend != "qdrant" {
		t.Errorf("expected qdrant, got %s", cfg.VectorStore.Backend)
	}
	if cfg.Embedding.MaxBatchSize != 10 {
		t.Errorf("expected 10, got %d", cfg.Embedding.MaxBatchSize)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[server]
port = 9090

[vectorstore]
backend = "memory"
`), 0644)

	cfg := Load(path)
	if cfg.Server.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.VectorStore.Backend != "memory" {
		t.Errorf("expected memory, got %s", cfg.VectorStore.Backend)
	}
	// Defaults preserved for sections the TOML file didn't touch.
	if cfg.LLM.Provider != "openai-compat" {
		t.Errorf("default should be preserved, got %s", cfg.LLM.Provider)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RAGFORGE_LLM_API_KEY", "env-key")
	t.Setenv("RAGFORGE_QDRANT_ADDR", "qdrant.internal:6334")

	cfg := Load("/nonexistent/path.toml")
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected env-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.VectorStore.QdrantAddr != "qdrant.internal:6334" {
		t.Errorf("expected qdrant.internal:6334, got %s", cfg.VectorStore.QdrantAddr)
	}
}

func TestObserverEnabledEnvOverride(t *testing.T) {
	cfg := Default()
	if cfg.Observer.Enabled {
		t.Fatal("expected observer disabled by default")
	}

	t.Setenv("RAGFORGE_OBSERVER_ENABLED", "1")
	cfg = Load("/nonexistent/path.toml")
	if !cfg.Observer.Enabled {
		t.Error("expected observer enabled via env var")
	}
}
