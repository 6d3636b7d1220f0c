// Command server runs the RAG chat endpoint: POST /chat, an SSE stream
// driven by the ragnodes orchestration graph.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/ragforge/checkpoint"
	checkpointredis "github.com/nevindra/ragforge/checkpoint/redis"
	"github.com/nevindra/ragforge/contentstore"
	contentpostgres "github.com/nevindra/ragforge/contentstore/postgres"
	"github.com/nevindra/ragforge/embed"
	embedopenaicompat "github.com/nevindra/ragforge/embed/openaicompat"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/internal/config"
	"github.com/nevindra/ragforge/llm"
	llmopenaicompat "github.com/nevindra/ragforge/llm/openaicompat"
	"github.com/nevindra/ragforge/observer"
	"github.com/nevindra/ragforge/prompt"
	"github.com/nevindra/ragforge/ragnodes"
	"github.com/nevindra/ragforge/tools"
	"github.com/nevindra/ragforge/tools/calculator"
	"github.com/nevindra/ragforge/tools/calendar"
	"github.com/nevindra/ragforge/tools/weather"
	"github.com/nevindra/ragforge/tools/websearch"
	"github.com/nevindra/ragforge/vectorstore"
	vectorqdrant "github.com/nevindra/ragforge/vectorstore/qdrant"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var inst *observer.Instruments
	var shutdownObserver func(context.Context) error
	if cfg.Observer.Enabled {
		pricing := make(map[string]observer.ModelPricing, len(cfg.Observer.Pricing))
		for model, p := range cfg.Observer.Pricing {
			pricing[model] = observer.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
		}
		var err error
		inst, shutdownObserver, err = observer.Init(ctx, pricing)
		if err != nil {
			log.Fatalf("server: observer init: %v", err)
		}
		defer shutdownObserver(context.Background())
	}

	llmBackend := buildLLMBackend(cfg, inst)
	embedBackend := buildEmbedBackend(cfg, inst)
	embedder := embed.New(embedBackend, embed.DefaultConfig(), logger)

	vectors, err := buildVectorStore(cfg, logger)
	if err != nil {
		log.Fatalf("server: vector store: %v", err)
	}

	content, err := buildContentStore(ctx, cfg)
	if err != nil {
		log.Fatalf("server: content store: %v", err)
	}

	checkpoints, err := buildCheckpointStore(cfg)
	if err != nil {
		log.Fatalf("server: checkpoint store: %v", err)
	}

	registry := tools.NewRegistry()
	mustRegister(registry, calculator.New())
	mustRegister(registry, calendar.New())
	mustRegister(registry, weather.New("https://api.open-meteo.com"))
	if cfg.Search.BraveAPIKey != "" {
		mustRegister(registry, websearch.New(cfg.Search.BraveAPIKey))
	}

	policy := llm.New(llmBackend, llm.WithLogger(logger))

	graphOpts := []graph.Option{graph.WithCheckpoints(checkpoints), graph.WithLogger(logger)}
	if inst != nil {
		graphOpts = append(graphOpts, graph.WithTracer(observer.NewTracer()))
	}

	g := ragnodes.Build(ragnodes.Deps{
		Policy:    policy,
		Embedder:  embedder,
		Vectors:   vectors,
		Content:   content,
		Tools:     registry,
		Guardrail: prompt.NewGuardrail(),
		PromptCfg: prompt.DefaultConfig(),
	}, graphOpts...)

	var runner graphRunner = g
	if inst != nil {
		runner = observer.WrapGraph(g, inst)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/chat", newChatHandler(runner, logger))
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server: shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("server: shutdown error", "err", err)
	}
	logger.Info("server: stopped")
}

func mustRegister(r *tools.Registry, t tools.Tool) {
	if err := r.Register(t); err != nil {
		log.Fatalf("server: register tool %s: %v", t.Name(), err)
	}
}

func buildLLMBackend(cfg config.Config, inst *observer.Instruments) llm.Backend {
	backend := llmopenaicompat.New(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	if inst != nil {
		return observer.WrapLLM(backend, cfg.LLM.Model, inst)
	}
	return backend
}

func buildEmbedBackend(cfg config.Config, inst *observer.Instruments) embed.Backend {
	backend := embedopenaicompat.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	if inst != nil {
		return observer.WrapEmbedding(backend, cfg.Embedding.Model, inst)
	}
	return backend
}

func buildVectorStore(cfg config.Config, logger *slog.Logger) (*vectorstore.Store, error) {
	vsCfg := vectorstore.DefaultConfig()
	switch cfg.VectorStore.Backend {
	case "memory":
		return vectorstore.New(vectorstore.NewMemoryBackend(), vsCfg, logger), nil
	default:
		backend, err := vectorqdrant.New(cfg.VectorStore.QdrantAddr, cfg.VectorStore.Collection)
		if err != nil {
			return nil, err
		}
		return vectorstore.New(backend, vsCfg, logger), nil
	}
}

func buildContentStore(ctx context.Context, cfg config.Config) (contentstore.Store, error) {
	if cfg.ContentStore.Backend == "memory" {
		return contentstore.NewMemoryStore(), nil
	}
	pool, err := pgxpool.New(ctx, cfg.ContentStore.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := contentpostgres.New(pool)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func buildCheckpointStore(cfg config.Config) (checkpoint.Store, error) {
	if cfg.Checkpoint.Backend == "memory" {
		return checkpoint.NewMemoryStore(), nil
	}
	return checkpointredis.New(cfg.Checkpoint.RedisAddr, "", cfg.Checkpoint.RedisDB)
}
