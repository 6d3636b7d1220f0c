// Command pipeline runs the embedding pipeline: a Kafka consumer that turns
// new-content queue deliveries into chunked, embedded vector records.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/ragforge/contentstore"
	contentpostgres "github.com/nevindra/ragforge/contentstore/postgres"
	"github.com/nevindra/ragforge/embed"
	embedopenaicompat "github.com/nevindra/ragforge/embed/openaicompat"
	"github.com/nevindra/ragforge/internal/config"
	"github.com/nevindra/ragforge/pipeline"
	"github.com/nevindra/ragforge/queue"
	"github.com/nevindra/ragforge/queue/kafka"
	"github.com/nevindra/ragforge/vectorstore"
	vectorqdrant "github.com/nevindra/ragforge/vectorstore/qdrant"
)

const defaultWorkers = 4

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	embedBackend := embedopenaicompat.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	embedder := embed.New(embedBackend, embed.DefaultConfig(), logger)

	vsCfg := vectorstore.DefaultConfig()
	vectorBackend, err := vectorqdrant.New(cfg.VectorStore.QdrantAddr, cfg.VectorStore.Collection)
	if err != nil {
		log.Fatalf("pipeline: vector store: %v", err)
	}
	vectors := vectorstore.New(vectorBackend, vsCfg, logger)

	content, err := buildContentStore(ctx, cfg)
	if err != nil {
		log.Fatalf("pipeline: content store: %v", err)
	}

	dlqProducer := kafka.NewProducer(cfg.Queue.Brokers)
	defer dlqProducer.Close()

	pCfg := pipeline.DefaultConfig()
	pCfg.MaxBodyChars = cfg.Pipeline.MaxBodyChars
	pCfg.MaxChunksPerBatch = cfg.Pipeline.MaxChunksPerBatch
	pCfg.WindowPause = time.Duration(cfg.Pipeline.WindowPauseMs) * time.Millisecond

	pl := pipeline.New(content, embedder, vectors, dlqProducer, cfg.Queue.DLQTopic, pCfg, logger)

	consumer := kafka.NewConsumer(cfg.Queue.Brokers, cfg.Queue.GroupID, cfg.Queue.Topic, logger)
	defer consumer.Close()

	handle := func(ctx context.Context, msg queue.Message) error {
		return pl.ProcessBatch(ctx, []queue.Message{msg})
	}

	logger.Info("pipeline: consuming", "topic", cfg.Queue.Topic, "group", cfg.Queue.GroupID)
	if err := consumer.Run(ctx, defaultWorkers, handle); err != nil && ctx.Err() == nil {
		log.Fatalf("pipeline: consumer: %v", err)
	}
	logger.Info("pipeline: stopped")
}

func buildContentStore(ctx context.Context, cfg config.Config) (contentstore.Store, error) {
	if cfg.ContentStore.Backend == "memory" {
		return contentstore.NewMemoryStore(), nil
	}
	pool, err := pgxpool.New(ctx, cfg.ContentStore.PostgresDSN)
	if err != nil {
		return nil, err
	}
	store := contentpostgres.New(pool)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
