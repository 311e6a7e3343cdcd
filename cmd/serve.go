package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/api"
	"github.com/pcrawley/contact-harvester/internal/progress"
	"github.com/pcrawley/contact-harvester/internal/progress/sinks"
)

const shutdownGrace = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP job submission API",
		Long: `Starts the long-running service: jobs are submitted over HTTP,
processed by a bounded worker pool, and exposed via status and results
endpoints plus Prometheus metrics.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanupStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanupStore()

	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("init prometheus sink: %w", err)
	}
	hub := progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
		sinks.NewStoreSink(store, logger),
	)

	svc, err := buildServices(ctx, cfg, store, hub, logger)
	if err != nil {
		return err
	}
	svc.hub = hub

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(svc.orch, store, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	svc.close(shutdownCtx, logger)
	return nil
}
