package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/entity"
	"github.com/ledgerflow/ledgerflow/internal/repository"
)

// IngestionResult describes one registered file.
type IngestionResult struct {
	SourcePath   string
	DocumentID   uuid.UUID
	Deduplicated bool
	HashHex      string
	UploadedAt   time.Time
}

// FSIngestor registers documents from the local filesystem. Content is
// hashed so re-ingesting the same file for the same tenant is a no-op.
type FSIngestor struct {
	docsRepo repository.DocumentRepository
	logger   *slog.Logger
}

func NewFSIngestor(docsRepo repository.DocumentRepository, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{docsRepo: docsRepo, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, tenantID uuid.UUID, uploadedBy, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !constants.AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			i.logger.Warn("ingest.close_error", "path", abs, "error", cerr)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	sum := h.Sum(nil)

	doc := &entity.Document{
		TenantID:    tenantID,
		UploadedBy:  uploadedBy,
		Filename:    filepath.Base(abs),
		SourcePath:  abs,
		MimeType:    mime.TypeByExtension("." + ext),
		ContentHash: sum,
	}
	row, dedup, err := i.docsRepo.UpsertByHash(ctx, doc)
	if err != nil {
		return out, err
	}

	out = IngestionResult{
		SourcePath:   row.SourcePath,
		DocumentID:   row.ID,
		Deduplicated: dedup,
		HashHex:      hex.EncodeToString(sum),
		UploadedAt:   row.CreatedAt,
	}
	i.logger.Info("ingest.registered",
		"document_id", row.ID,
		"path", abs,
		"deduplicated", dedup,
	)
	return out, nil
}
