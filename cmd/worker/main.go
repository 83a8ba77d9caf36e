package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jce-C/megregalo/internal/cache"
	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/log"
	"github.com/Jce-C/megregalo/internal/queue"
	"github.com/Jce-C/megregalo/internal/storage"
	"github.com/Jce-C/megregalo/internal/tasks"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.NewWithLevel(os.Stdout, cfg.Environment, cfg.Logging.Level)

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	if !cfg.Storage.Enabled() {
		logger.Fatal().Msg("storage.endpoint is required for thumbnail rendering")
	}
	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	processor := tasks.NewProcessor(objectStore, cfg.Thumbnail, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Queues.ClaimInterval,
		logger,
		processor,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
