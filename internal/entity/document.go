package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/constants"
)

// ClassificationResult is the classifier's verdict for one document.
// PotentialMisclassification is true whenever Confidence < 0.6.
type ClassificationResult struct {
	DocumentType               constants.DocumentType `json:"document_type"`
	Confidence                 float64                `json:"confidence"`
	Reasoning                  string                 `json:"reasoning"`
	KeyIndicators              []string               `json:"key_indicators"`
	PotentialMisclassification bool                   `json:"potential_misclassification"`
}

// Document is the aggregate root: one uploaded file plus its processing state
// and derived data. Journal entries reference it and are deleted with it.
type Document struct {
	ID             uuid.UUID             `json:"id"`
	TenantID       uuid.UUID             `json:"tenant_id"`
	UploadedBy     string                `json:"uploaded_by"`
	Filename       string                `json:"filename"`
	SourcePath     string                `json:"source_path"`
	MimeType       string                `json:"mime_type"`
	ContentHash    []byte                `json:"-"`
	Status         constants.DocStatus   `json:"status"`
	FailureReason  *string               `json:"failure_reason,omitempty"`
	FailedAt       *time.Time            `json:"failed_at,omitempty"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	ExtractedData  []Record              `json:"extracted_data,omitempty"`
	DataIssues     []string              `json:"data_issues,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}
