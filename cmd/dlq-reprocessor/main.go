// Command dlq-reprocessor drains the dead-letter topic: parse errors are
// acknowledged, embed errors are retried with backoff or exhausted.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nevindra/ragforge/dlq"
	"github.com/nevindra/ragforge/internal/config"
	"github.com/nevindra/ragforge/queue/kafka"
)

const defaultWorkers = 2

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	retryProducer := kafka.NewProducer(cfg.Queue.Brokers)
	defer retryProducer.Close()

	reprocessor := dlq.New(cfg.Queue.Topic, retryProducer, logger)

	consumer := kafka.NewConsumer(cfg.Queue.Brokers, cfg.Queue.GroupID+"-dlq", cfg.Queue.DLQTopic, logger)
	defer consumer.Close()

	logger.Info("dlq-reprocessor: consuming", "topic", cfg.Queue.DLQTopic, "group", cfg.Queue.GroupID+"-dlq")
	if err := consumer.Run(ctx, defaultWorkers, reprocessor.Handle); err != nil && ctx.Err() == nil {
		log.Fatalf("dlq-reprocessor: consumer: %v", err)
	}

	logger.Info("dlq-reprocessor: stopped",
		"parse_errors", reprocessor.Counters.ParsingErrorsProcessed.Load(),
		"malformed", reprocessor.Counters.MessagesMalformed.Load(),
		"embed_retried", reprocessor.Counters.EmbedErrorsRetried.Load(),
		"embed_exhausted", reprocessor.Counters.EmbedErrorsExhausted.Load(),
	)
}
