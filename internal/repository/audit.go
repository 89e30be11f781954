package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// AuditRepository records pipeline events. Audit writes are best-effort:
// failures are logged, never allowed to fail the pipeline that produced
// them.
type AuditRepository interface {
	Record(ctx context.Context, ev entity.AuditEvent)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.AuditEvent, error)
}

type auditRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAuditRepository(pool *pgxpool.Pool, logger *slog.Logger) AuditRepository {
	return &auditRepository{pool: pool, logger: logger}
}

func (r *auditRepository) Record(ctx context.Context, ev entity.AuditEvent) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (id, document_id, tenant_id, action, detail, elapsed_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.DocumentID, ev.TenantID, ev.Action, ev.Detail, ev.ElapsedMS, ev.CreatedAt,
	)
	if err != nil {
		r.logger.Error("audit.record.failed", "document_id", ev.DocumentID, "action", ev.Action, "error", err)
	}
}

func (r *auditRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.AuditEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, tenant_id, action, detail, elapsed_ms, created_at
		 FROM audit_events WHERE document_id = $1 ORDER BY created_at`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.AuditEvent
	for rows.Next() {
		var ev entity.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.DocumentID, &ev.TenantID, &ev.Action, &ev.Detail, &ev.ElapsedMS, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
