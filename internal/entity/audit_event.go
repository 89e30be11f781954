package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent records one pipeline action against a document.
type AuditEvent struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
