package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/correspondente/dossie-engine/internal/common"
	"github.com/correspondente/dossie-engine/internal/docs"
	"github.com/correspondente/dossie-engine/internal/export"
	"github.com/correspondente/dossie-engine/internal/extract"
	"github.com/correspondente/dossie-engine/internal/metrics"
	"github.com/correspondente/dossie-engine/internal/pipeline"
	"github.com/correspondente/dossie-engine/internal/server"
	"github.com/correspondente/dossie-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("open database", "path", cfg.Database.Path, "err", err)
		os.Exit(1)
	}
	defer db.Close()
	repo := store.NewDossierRepository(db, logger)

	extractor, err := extract.NewExtractor(logger)
	if err != nil {
		logger.Error("load recognizer table", "err", err)
		os.Exit(1)
	}

	policies := docs.DefaultPolicies()
	if cfg.Pipeline.PolicyFile != "" {
		policies, err = docs.LoadPolicyFile(cfg.Pipeline.PolicyFile, policies)
		if err != nil {
			logger.Error("load policy overrides", "path", cfg.Pipeline.PolicyFile, "err", err)
			os.Exit(1)
		}
		logger.Info("policy overrides applied", "path", cfg.Pipeline.PolicyFile)
	}

	processor := pipeline.NewProcessor(logger, pipeline.Config{
		OCRTimeout: cfg.Pipeline.OCRTimeout,
		Workers:    cfg.Pipeline.Workers,
	}, extractor, policies, metrics.New())

	srv := server.New(logger, processor, repo, export.NewService(repo, logger))
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("stopped")
}
