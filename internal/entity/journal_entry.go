package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntry is one leg of a double-entry posting. Legs generated from the
// same source record share a JournalGroupID so the pair can be correlated
// later. Exactly one of DebitAmount/CreditAmount is non-zero per leg.
// Entries are created once and never mutated; deletion cascades from the
// owning document.
type JournalEntry struct {
	ID             uuid.UUID       `json:"journal_id"`
	JournalGroupID uuid.UUID       `json:"journal_group_id"`
	EntryDate      time.Time       `json:"date"`
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	DebitAmount    decimal.Decimal `json:"debit_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	Narration      string          `json:"narration"`
	DocumentID     uuid.UUID       `json:"document_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}
