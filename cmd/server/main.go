package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/audit"
	"github.com/Skufu/medpredict/internal/config"
	"github.com/Skufu/medpredict/internal/inference"
	"github.com/Skufu/medpredict/internal/logging"
	"github.com/Skufu/medpredict/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "medpredict",
		Short:        "Disease prediction service for diabetes, heart and kidney screening",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(serveCmd(), checkCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Configure(cfg.LogLevel, os.Stderr)
	gin.SetMode(cfg.GinMode)

	reg, err := artifact.Load(cfg.ModelDir)
	if err != nil {
		logger.Error("model load failed", "dir", cfg.ModelDir, "err", err)
		return err
	}
	for _, info := range reg.Describe() {
		logger.Info("model loaded", "domain", info.Domain, "kind", info.ModelKind,
			"version", info.ModelVersion, "scaled", info.Scaled)
	}

	deps := server.Deps{
		Pipeline:       inference.New(reg, inference.Options{StrictRanges: cfg.StrictRanges, Logger: logger}),
		Registry:       reg,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}
	if cfg.EnableDB {
		store, err := audit.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "err", err)
			return err
		}
		defer store.Close()
		deps.DB = store
		deps.Audit = store
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("server listening", "port", cfg.Port, "strict_ranges", cfg.StrictRanges, "db", cfg.EnableDB)
	return waitForShutdown(ctx, srv, errCh, logger)
}

func waitForShutdown(ctx context.Context, srv *http.Server, errCh <-chan error, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server error", "err", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		return err
	}
	return nil
}
