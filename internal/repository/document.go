package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// DocumentRepository persists the Document aggregate.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	// UpsertByHash registers a document, returning the existing row when
	// the same tenant already uploaded identical content.
	UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Document, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.DocStatus) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	SaveClassification(ctx context.Context, id uuid.UUID, res *entity.ClassificationResult) error
	SaveExtractedData(ctx context.Context, id uuid.UUID, records []entity.Record, issues []string) error
	// ResetForReprocess clears derived data and failure state and returns
	// the document to "uploaded".
	ResetForReprocess(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	return &documentRepository{pool: pool, logger: logger}
}

const documentColumns = `id, tenant_id, uploaded_by, filename, source_path, mime_type, content_hash,
	status, failure_reason, failed_at, classification, extracted_data, data_issues, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = constants.StatusUploaded
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, tenant_id, uploaded_by, filename, source_path, mime_type, content_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.TenantID, doc.UploadedBy, doc.Filename, doc.SourcePath, doc.MimeType, doc.ContentHash, string(doc.Status), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("document.create.failed", "document_id", doc.ID, "error", err)
		return common.NewAppError("STORAGE_ERROR", "insert document", common.ErrDatabase)
	}
	return nil
}

func (r *documentRepository) UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	if len(doc.ContentHash) > 0 {
		row := r.pool.QueryRow(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 AND content_hash = $2 LIMIT 1`,
			doc.TenantID, doc.ContentHash,
		)
		existing, err := scanDocument(row)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, err
		}
	}
	if err := r.Create(ctx, doc); err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s", id), common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("document.get.failed", "document_id", id, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		r.logger.Error("document.list.failed", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) SetStatus(ctx context.Context, id uuid.UUID, status constants.DocStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		r.logger.Error("document.set_status.failed", "document_id", id, "status", status, "error", err)
		return common.NewAppError("STORAGE_ERROR", "update status", common.ErrDatabase)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s", id), common.ErrNotFound)
	}
	return nil
}

func (r *documentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE documents SET status = $2, failure_reason = $3, failed_at = now(), updated_at = now() WHERE id = $1`,
		id, string(constants.StatusFailed), reason,
	)
	if err != nil {
		r.logger.Error("document.mark_failed.failed", "document_id", id, "error", err)
		return common.NewAppError("STORAGE_ERROR", "mark failed", common.ErrDatabase)
	}
	return nil
}

func (r *documentRepository) SaveClassification(ctx context.Context, id uuid.UUID, res *entity.ClassificationResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE documents SET classification = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, b, string(constants.StatusClassified),
	)
	if err != nil {
		r.logger.Error("document.save_classification.failed", "document_id", id, "error", err)
		return common.NewAppError("STORAGE_ERROR", "save classification", common.ErrDatabase)
	}
	return nil
}

func (r *documentRepository) SaveExtractedData(ctx context.Context, id uuid.UUID, records []entity.Record, issues []string) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	iss, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshal data issues: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE documents SET extracted_data = $2, data_issues = $3, status = $4, updated_at = now() WHERE id = $1`,
		id, data, iss, string(constants.StatusExtracted),
	)
	if err != nil {
		r.logger.Error("document.save_extracted.failed", "document_id", id, "error", err)
		return common.NewAppError("STORAGE_ERROR", "save extracted data", common.ErrDatabase)
	}
	return nil
}

func (r *documentRepository) ResetForReprocess(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, classification = NULL, extracted_data = NULL, data_issues = NULL,
		    failure_reason = NULL, failed_at = NULL, updated_at = now()
		WHERE id = $1`,
		id, string(constants.StatusUploaded),
	)
	if err != nil {
		r.logger.Error("document.reset.failed", "document_id", id, "error", err)
		return common.NewAppError("STORAGE_ERROR", "reset document", common.ErrDatabase)
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// journal_entries cascade via FK.
	_, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("document.delete.failed", "document_id", id, "error", err)
		return common.NewAppError("STORAGE_ERROR", "delete document", common.ErrDatabase)
	}
	return nil
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var status string
	var classification, extracted, issues []byte
	err := row.Scan(
		&doc.ID, &doc.TenantID, &doc.UploadedBy, &doc.Filename, &doc.SourcePath, &doc.MimeType, &doc.ContentHash,
		&status, &doc.FailureReason, &doc.FailedAt, &classification, &extracted, &issues, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = constants.DocStatus(status)
	if len(classification) > 0 {
		var res entity.ClassificationResult
		if err := json.Unmarshal(classification, &res); err != nil {
			return nil, fmt.Errorf("decode classification: %w", err)
		}
		doc.Classification = &res
	}
	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("decode extracted data: %w", err)
		}
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &doc.DataIssues); err != nil {
			return nil, fmt.Errorf("decode data issues: %w", err)
		}
	}
	return &doc, nil
}
