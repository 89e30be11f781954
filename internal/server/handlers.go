package server

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/core/async"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// handleUpload accepts a multipart upload, stores the file under the upload
// directory and registers the document. Identical content from the same
// tenant maps to the existing document.
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "parse multipart form", common.ErrInvalidInput))
		return
	}

	tenantID, err := uuid.Parse(strings.TrimSpace(r.FormValue("tenant_id")))
	if err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "tenant_id must be a UUID", common.ErrInvalidInput))
		return
	}
	uploadedBy := strings.TrimSpace(r.FormValue("uploaded_by"))

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "file field is required", common.ErrInvalidInput))
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if !constants.AllowedExt(ext) {
		respondError(w, common.ExtractionError(fmt.Sprintf("extension %q", ext), common.ErrUnsupportedFormat))
		return
	}

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		respondError(w, fmt.Errorf("prepare upload dir: %w", err))
		return
	}
	dstPath := filepath.Join(s.cfg.Server.UploadDir, uuid.NewString()+"."+ext)
	dst, err := os.Create(dstPath)
	if err != nil {
		respondError(w, fmt.Errorf("store upload: %w", err))
		return
	}
	defer dst.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), file); err != nil {
		respondError(w, fmt.Errorf("store upload: %w", err))
		return
	}

	doc := &entity.Document{
		TenantID:    tenantID,
		UploadedBy:  uploadedBy,
		Filename:    filepath.Base(header.Filename),
		SourcePath:  dstPath,
		MimeType:    header.Header.Get("Content-Type"),
		ContentHash: h.Sum(nil),
	}
	row, dedup, err := s.docsRepo.UpsertByHash(r.Context(), doc)
	if err != nil {
		respondError(w, err)
		return
	}
	if dedup {
		// drop the duplicate copy we just wrote
		if rmErr := os.Remove(dstPath); rmErr != nil {
			s.logger.Warn("upload.duplicate_cleanup_failed", "path", dstPath, "error", rmErr)
		}
	}

	s.logger.Info("upload.accepted",
		"document_id", row.ID,
		"tenant_id", tenantID,
		"filename", row.Filename,
		"deduplicated", dedup,
	)
	status := http.StatusCreated
	if dedup {
		status = http.StatusOK
	}
	respondJSON(w, status, map[string]any{
		"document":     row,
		"deduplicated": dedup,
	})
}

func (s *Service) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("tenant_id")))
	if err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "tenant_id must be a UUID", common.ErrInvalidInput))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := s.docsRepo.ListByTenant(r.Context(), tenantID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Service) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	doc, err := s.docsRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// handleProcess runs the pipeline for one document. With ?async=true and a
// configured queue the work is enqueued instead and 202 returned.
func (s *Service) handleProcess(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if s.queue != nil && r.URL.Query().Get("async") == "true" {
		_ = s.queue.Enqueue(r.Context(), async.NewJob(id, false))
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	if err := s.proc.ProcessDocument(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	doc, err := s.docsRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

type processBatchRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

func (s *Service) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req processBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "invalid JSON body", common.ErrInvalidInput))
		return
	}
	if len(req.DocumentIDs) == 0 {
		respondError(w, common.NewAppError("INVALID_INPUT", "document_ids is required", common.ErrInvalidInput))
		return
	}

	res := s.proc.ProcessBatch(r.Context(), req.DocumentIDs, nil)

	errs := make(map[string]string, len(res.Errors))
	for id, msg := range res.Errors {
		errs[id.String()] = msg
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total":     res.Total,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
		"errors":    errs,
	})
}

func (s *Service) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if s.queue != nil && r.URL.Query().Get("async") == "true" {
		_ = s.queue.Enqueue(r.Context(), async.NewJob(id, true))
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	if err := s.proc.Reprocess(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	doc, err := s.docsRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Service) handleDocumentJournal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := s.journalRepo.ListByDocument(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Service) handleDocumentAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	events, err := s.auditRepo.ListByDocument(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleExportJournal streams the tenant's journal as csv (default) or xlsx.
// from/to are YYYY-MM-DD, both optional.
func (s *Service) handleExportJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID, err := uuid.Parse(strings.TrimSpace(q.Get("tenant_id")))
	if err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "tenant_id must be a UUID", common.ErrInvalidInput))
		return
	}

	var from, to *time.Time
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, common.NewAppError("INVALID_INPUT", "from must be YYYY-MM-DD", common.ErrInvalidInput))
			return
		}
		from = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, common.NewAppError("INVALID_INPUT", "to must be YYYY-MM-DD", common.ErrInvalidInput))
			return
		}
		to = &t
	}

	switch strings.ToLower(q.Get("format")) {
	case "", "csv":
		data, err := s.exporter.ExportJournalCSV(r.Context(), tenantID, from, to)
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="journal.csv"`)
		_, _ = w.Write(data)
	case "xlsx":
		data, err := s.exporter.ExportJournalXLSX(r.Context(), tenantID, from, to)
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="journal.xlsx"`)
		_, _ = w.Write(data)
	default:
		respondError(w, common.NewAppError("INVALID_INPUT", "format must be csv or xlsx", common.ErrInvalidInput))
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, common.NewAppError("INVALID_INPUT", "id must be a UUID", common.ErrInvalidInput)
	}
	return id, nil
}
