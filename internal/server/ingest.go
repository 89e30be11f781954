package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/core/async"
)

type ingestDirectoryRequest struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	UploadedBy  string    `json:"uploaded_by"`
	RootPath    string    `json:"root_path"`
	IncludeExts []string  `json:"include_exts"`
	SkipHidden  bool      `json:"skip_hidden"`
	// Process enqueues every newly registered document after the walk.
	Process bool `json:"process"`
}

func (s *Service) handleIngestDirectory(w http.ResponseWriter, r *http.Request) {
	var req ingestDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "invalid JSON body", common.ErrInvalidInput))
		return
	}
	if req.TenantID == uuid.Nil {
		respondError(w, common.NewAppError("INVALID_INPUT", "tenant_id is required", common.ErrInvalidInput))
		return
	}
	if req.RootPath == "" {
		respondError(w, common.NewAppError("INVALID_INPUT", "root_path is required", common.ErrInvalidInput))
		return
	}

	results, stats, err := s.ingestor.IngestDirectory(r.Context(), req.TenantID, req.UploadedBy, req.RootPath, req.IncludeExts, req.SkipHidden)
	if err != nil {
		respondError(w, err)
		return
	}

	queued := 0
	if req.Process && s.queue != nil {
		for _, res := range results {
			if res.Err != "" || res.Deduplicated {
				continue
			}
			_ = s.queue.Enqueue(r.Context(), async.NewJob(res.DocumentID, false))
			queued++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"stats":   stats,
		"queued":  queued,
	})
}
