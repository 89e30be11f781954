package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/internal/classify"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/core"
	"github.com/ledgerflow/ledgerflow/internal/docai"
	"github.com/ledgerflow/ledgerflow/internal/export"
	"github.com/ledgerflow/ledgerflow/internal/extract"
	"github.com/ledgerflow/ledgerflow/internal/ingest"
	"github.com/ledgerflow/ledgerflow/internal/journal"
	"github.com/ledgerflow/ledgerflow/internal/normalize"
	repo "github.com/ledgerflow/ledgerflow/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory to ingest documents from (required)")
		out        = flag.String("out", "", "output journal file path, .csv or .xlsx (optional, defaults to parent directory)")
		tenantStr  = flag.String("tenant", "", "tenant UUID (required)")
		uploadedBy = flag.String("uploaded-by", "batch", "recorded as the uploader")
		fromStr    = flag.String("from", "", "from date YYYY-MM-DD")
		toStr      = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	tenantID, err := uuid.Parse(strings.TrimSpace(*tenantStr))
	if err != nil {
		printError("Error: --tenant must be a UUID\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "journal.xlsx")
	}

	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}

	ctx := context.Background()

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

	docsRepo := repo.NewDocumentRepository(pool, logger)
	journalRepo := repo.NewJournalRepository(pool, logger)
	auditRepo := repo.NewAuditRepository(pool, logger)

	var aiClient core.AIClassifier
	if cfg.DocAI.BaseURL != "" {
		aiClient = docai.NewClient(docai.Config{BaseURL: cfg.DocAI.BaseURL, Timeout: cfg.DocAI.Timeout}, logger)
	}

	processor := core.NewProcessor(
		logger,
		extract.NewExtractor(extract.Config{Pdftotext: cfg.Extract.Pdftotext, MaxPDFKB: cfg.Extract.MaxPDFKB}, logger),
		classify.NewClassifier(logger),
		normalize.NewNormalizer(logger),
		journal.NewGenerator(logger),
		aiClient,
		docsRepo, journalRepo, auditRepo,
		cfg.Pipeline.BatchSize, cfg.Pipeline.MinConfidence,
	)

	// 1) Register every supported file under --dir.
	ingestor := ingest.NewFSIngestor(docsRepo, logger)
	results, stats, err := ingestor.IngestDirectory(ctx, tenantID, *uploadedBy, *dir, nil, true)
	if err != nil {
		logger.Error("directory ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingest complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)

	// 2) Process everything that is new.
	var ids []uuid.UUID
	for _, r := range results {
		if r.Err == "" && !r.Deduplicated {
			ids = append(ids, r.DocumentID)
		}
	}
	if len(ids) > 0 {
		batch := processor.ProcessBatch(ctx, ids, func(completed, total int) {
			fmt.Printf("processed %d/%d documents\n", completed, total)
		})
		logger.Info("processing complete", "succeeded", batch.Succeeded, "failed", batch.Failed)
		for id, msg := range batch.Errors {
			logger.Warn("document failed", "document_id", id, "reason", msg)
		}
	} else {
		logger.Info("nothing new to process")
	}

	// 3) Export the tenant's journal.
	exporter := export.NewService(journalRepo, logger)
	var data []byte
	switch strings.ToLower(filepath.Ext(*out)) {
	case ".csv":
		data, err = exporter.ExportJournalCSV(ctx, tenantID, from, to)
	default:
		data, err = exporter.ExportJournalXLSX(ctx, tenantID, from, to)
	}
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("write output file", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("journal exported", "path", *out, "bytes", len(data))
	fmt.Printf("journal written to %s\n", *out)
}
