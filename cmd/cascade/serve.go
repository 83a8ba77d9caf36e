package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Jce-C/megregalo/internal/cascade"
	"github.com/Jce-C/megregalo/internal/middleware"
	"github.com/Jce-C/megregalo/internal/viewer"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cascade and host the scene page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := viewer.NewHub(a.logger)
	go hub.Run(ctx)

	opts := cascade.DefaultOptions()
	opts.Capacity = a.cfg.Scene.Capacity
	opts.Grace = a.cfg.Scene.Grace
	opts.RefreshSchedule = a.cfg.Scene.RefreshSchedule

	scheduler := cascade.NewScheduler(cascade.NewSpawner(nil), a.client, hub, opts, a.logger)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start cascade: %w", err)
	}
	defer scheduler.Stop()

	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(a.logger),
		middleware.Recovery(a.logger),
	)
	viewer.NewServer(hub, scheduler, a.logger).Register(engine)

	// no write timeout: the scene socket stays open
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, a.cfg.HTTP.Port),
		Handler:     engine,
		ReadTimeout: a.cfg.HTTP.ReadTimeout,
		IdleTimeout: a.cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Str("api", a.cfg.APIBaseURL).Msg("cascade page serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Int("dropped", scheduler.Dropped()).Msg("shutting down cascade")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
