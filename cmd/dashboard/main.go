package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/aor-intel-dashboard/internal/adapter/http"
	mongoadapter "github.com/couchcryptid/aor-intel-dashboard/internal/adapter/mongo"
	"github.com/couchcryptid/aor-intel-dashboard/internal/config"
	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/observability"
	"github.com/couchcryptid/aor-intel-dashboard/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mongoadapter.Connect(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to report store", "error", err)
		os.Exit(1)
	}
	store := mongoadapter.NewStore(client, cfg, logger)

	p := pipeline.New(store, domain.DefaultRegistry(), logger, metrics, cfg.QueryTimeout)

	// The store may still be starting; readiness reports it until it answers.
	if err := p.CheckReadiness(ctx); err != nil {
		logger.Warn("report store not reachable yet", "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("report store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
