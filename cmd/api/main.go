package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/cache"
	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/handlers"
	"github.com/Jce-C/megregalo/internal/jobs"
	"github.com/Jce-C/megregalo/internal/log"
	"github.com/Jce-C/megregalo/internal/queue"
	"github.com/Jce-C/megregalo/internal/repository"
	"github.com/Jce-C/megregalo/internal/server"
	"github.com/Jce-C/megregalo/internal/service"
	"github.com/Jce-C/megregalo/internal/storage"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open photo storage")
	}
	logger.Info().Str("backend", string(store.Backend)).Msg("photo storage ready")

	var (
		redisClient *redis.Client
		enqueuer    service.Enqueuer
		scheduler   *jobs.Scheduler
	)
	cacheDep := handlers.Dependency{Name: "redis"}
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, thumbnails disabled")
		} else {
			producer := queue.NewProducer(redisClient, cfg.Redis.Stream)
			enqueuer = producer
			scheduler = jobs.NewScheduler(producer, logger)
			cacheDep.Ping = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var objects service.ObjectStore
	storageDep := handlers.Dependency{Name: "objectStore"}
	if cfg.Storage.Enabled() {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBuckets(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure buckets failed")
		}
		objects = objectStore
		storageDep.Ping = objectStore.Ping
	}

	photos := service.NewPhotoService(store.Photos, objects, enqueuer, cfg.Photos, logger)
	handlerSet := handlers.NewHandlerSet(logger, cfg, photos, string(store.Backend), cacheDep, storageDep)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, store, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, store *repository.Store, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("scheduler jobs still running at shutdown")
		}
	}

	store.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
