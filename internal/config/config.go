// Package config loads ragforge's runtime configuration: defaults, then an
// optional TOML file, then environment variables (env wins).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for every ragforge entrypoint.
// Each cmd/* binary reads the sections it needs and ignores the rest.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	LLM          LLMConfig          `toml:"llm"`
	Embedding    EmbeddingConfig    `toml:"embedding"`
	VectorStore  VectorStoreConfig  `toml:"vectorstore"`
	ContentStore ContentStoreConfig `toml:"contentstore"`
	Queue        QueueConfig        `toml:"queue"`
	Checkpoint   CheckpointConfig   `toml:"checkpoint"`
	Pipeline     PipelineConfig     `toml:"pipeline"`
	Search       SearchConfig       `toml:"search"`
	Observer     ObserverConfig     `toml:"observer"`
}

// ServerConfig configures cmd/server's chat endpoint.
type ServerConfig struct {
	Port            int           `toml:"port"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// LLMConfig configures the chat-completion adapter (llm/openaicompat).
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// EmbeddingConfig configures the embedding adapter (embed/openaicompat) and
// the Embedder's batching/retry policy.
type EmbeddingConfig struct {
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	APIKey        string `toml:"api_key"`
	BaseURL       string `toml:"base_url"`
	MaxBatchSize  int    `toml:"max_batch_size"`
	RetryAttempts int    `toml:"retry_attempts"`
	RetryDelayMs  int    `toml:"retry_delay_ms"`
}

// VectorStoreConfig selects and configures the vector backend.
type VectorStoreConfig struct {
	Backend    string `toml:"backend"` // "qdrant" or "memory"
	QdrantAddr string `toml:"qdrant_addr"`
	Collection string `toml:"collection"`
}

// ContentStoreConfig selects and configures the content-item lookup backend.
type ContentStoreConfig struct {
	Backend     string `toml:"backend"` // "postgres"
	PostgresDSN string `toml:"postgres_dsn"`
}

// QueueConfig configures the durable message queue the pipeline and DLQ
// reprocessor consume from.
type QueueConfig struct {
	Backend  string   `toml:"backend"` // "kafka"
	Brokers  []string `toml:"brokers"`
	GroupID  string   `toml:"group_id"`
	Topic    string   `toml:"topic"`
	DLQTopic string   `toml:"dlq_topic"`
}

// CheckpointConfig selects and configures the graph-run checkpoint store.
type CheckpointConfig struct {
	Backend   string `toml:"backend"` // "redis" or "memory"
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// PipelineConfig configures the embedding pipeline's per-delivery tunables.
// WindowPauseMs is converted to a time.Duration by the caller constructing a
// pipeline.Config.
type PipelineConfig struct {
	MaxBodyChars      int `toml:"max_body_chars"`
	MaxChunksPerBatch int `toml:"max_chunks_per_batch"`
	WindowPauseMs     int `toml:"window_pause_ms"`
}

// SearchConfig configures the web_search tool.
type SearchConfig struct {
	BraveAPIKey string `toml:"brave_api_key"`
}

// ObserverConfig enables OTEL export and overrides per-model cost pricing.
type ObserverConfig struct {
	Enabled bool                       `toml:"enabled"`
	Pricing map[string]ObserverPricing `toml:"pricing"`
}

// ObserverPricing overrides observer.DefaultPricing for one model.
type ObserverPricing struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		LLM: LLMConfig{
			Provider:    "openai-compat",
			Model:       "gpt-4o-mini",
			MaxTokens:   4000,
			Temperature: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider:      "openai-compat",
			Model:         "text-embedding-3-small",
			MaxBatchSize:  10,
			RetryAttempts: 3,
			RetryDelayMs:  1000,
		},
		VectorStore: VectorStoreConfig{
			Backend:    "qdrant",
			QdrantAddr: "localhost:6334",
			Collection: "ragforge",
		},
		ContentStore: ContentStoreConfig{
			Backend: "postgres",
		},
		Queue: QueueConfig{
			Backend:  "kafka",
			Brokers:  []string{"localhost:9092"},
			GroupID:  "ragforge-pipeline",
			Topic:    "content.events",
			DLQTopic: "content.dlq",
		},
		Checkpoint: CheckpointConfig{
			Backend:   "redis",
			RedisAddr: "localhost:6379",
		},
		Pipeline: PipelineConfig{
			MaxBodyChars:      100_000,
			MaxChunksPerBatch: 50,
			WindowPauseMs:     50,
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins). path
// defaults to "ragforge.toml" when empty; a missing or unparseable file is
// silently ignored and defaults are kept.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "ragforge.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("RAGFORGE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RAGFORGE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("RAGFORGE_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("RAGFORGE_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("RAGFORGE_QDRANT_ADDR"); v != "" {
		cfg.VectorStore.QdrantAddr = v
	}
	if v := os.Getenv("RAGFORGE_POSTGRES_DSN"); v != "" {
		cfg.ContentStore.PostgresDSN = v
	}
	if v := os.Getenv("RAGFORGE_REDIS_ADDR"); v != "" {
		cfg.Checkpoint.RedisAddr = v
	}
	if v := os.Getenv("RAGFORGE_BRAVE_API_KEY"); v != "" {
		cfg.Search.BraveAPIKey = v
	}
	if v := os.Getenv("RAGFORGE_OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}
