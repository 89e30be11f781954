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

	"github.com/ledgerflow/ledgerflow/internal/classify"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/core"
	"github.com/ledgerflow/ledgerflow/internal/core/async"
	"github.com/ledgerflow/ledgerflow/internal/docai"
	"github.com/ledgerflow/ledgerflow/internal/export"
	"github.com/ledgerflow/ledgerflow/internal/extract"
	"github.com/ledgerflow/ledgerflow/internal/ingest"
	"github.com/ledgerflow/ledgerflow/internal/journal"
	"github.com/ledgerflow/ledgerflow/internal/normalize"
	repo "github.com/ledgerflow/ledgerflow/internal/repository"
	svc "github.com/ledgerflow/ledgerflow/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	docsRepo := repo.NewDocumentRepository(pool, logger)
	journalRepo := repo.NewJournalRepository(pool, logger)
	auditRepo := repo.NewAuditRepository(pool, logger)

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext: cfg.Extract.Pdftotext,
		MaxPDFKB:  cfg.Extract.MaxPDFKB,
	}, logger)
	classifier := classify.NewClassifier(logger)
	normalizer := normalize.NewNormalizer(logger)
	generator := journal.NewGenerator(logger)

	var aiClient core.AIClassifier
	if cfg.DocAI.BaseURL != "" {
		aiClient = docai.NewClient(docai.Config{
			BaseURL: cfg.DocAI.BaseURL,
			Timeout: cfg.DocAI.Timeout,
		}, logger)
		logger.Info("external classification service configured", "base_url", cfg.DocAI.BaseURL)
	} else {
		logger.Info("no external classification service, using local classifier only")
	}

	processor := core.NewProcessor(
		logger, extractor, classifier, normalizer, generator, aiClient,
		docsRepo, journalRepo, auditRepo, cfg.Pipeline.BatchSize, cfg.Pipeline.MinConfidence,
	)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.QueueWorkers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	ingestor := ingest.NewFSIngestor(docsRepo, logger)
	exporter := export.NewService(journalRepo, logger)

	service := svc.NewService(cfg, logger, pool, docsRepo, journalRepo, auditRepo, processor, queue, ingestor, exporter)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      service.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
