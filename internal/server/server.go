package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/core"
	"github.com/ledgerflow/ledgerflow/internal/core/async"
	"github.com/ledgerflow/ledgerflow/internal/export"
	"github.com/ledgerflow/ledgerflow/internal/ingest"
	"github.com/ledgerflow/ledgerflow/internal/repository"
)

// Service wires the HTTP surface over the pipeline.
type Service struct {
	cfg         *common.Config
	logger      *slog.Logger
	pool        *pgxpool.Pool
	docsRepo    repository.DocumentRepository
	journalRepo repository.JournalRepository
	auditRepo   repository.AuditRepository
	proc        *core.Processor
	queue       async.Queue // nil disables async processing
	ingestor    *ingest.FSIngestor
	exporter    *export.Service
}

func NewService(
	cfg *common.Config,
	logger *slog.Logger,
	pool *pgxpool.Pool,
	docsRepo repository.DocumentRepository,
	journalRepo repository.JournalRepository,
	auditRepo repository.AuditRepository,
	proc *core.Processor,
	queue async.Queue,
	ingestor *ingest.FSIngestor,
	exporter *export.Service,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		docsRepo:    docsRepo,
		journalRepo: journalRepo,
		auditRepo:   auditRepo,
		proc:        proc,
		queue:       queue,
		ingestor:    ingestor,
		exporter:    exporter,
	}
}

func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/documents", s.handleUpload).Methods(http.MethodPost)
	v1.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	v1.HandleFunc("/documents/process-batch", s.handleProcessBatch).Methods(http.MethodPost)
	v1.HandleFunc("/documents/{id}", s.handleGetDocument).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}/process", s.handleProcess).Methods(http.MethodPost)
	v1.HandleFunc("/documents/{id}/reprocess", s.handleReprocess).Methods(http.MethodPost)
	v1.HandleFunc("/documents/{id}/journal", s.handleDocumentJournal).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}/audit", s.handleDocumentAudit).Methods(http.MethodGet)
	v1.HandleFunc("/journal/export", s.handleExportJournal).Methods(http.MethodGet)
	v1.HandleFunc("/ingest/directory", s.handleIngestDirectory).Methods(http.MethodPost)

	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := repository.HealthCheck(ctx, s.pool, 2*time.Second, s.logger); err != nil {
		s.logger.Error("health.db_unreachable", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
