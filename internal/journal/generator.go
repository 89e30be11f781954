package journal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/entity"
	"github.com/ledgerflow/ledgerflow/internal/schema"
)

// Result is the outcome of generating entries for one document.
type Result struct {
	Entries []entity.JournalEntry
	// Skipped counts records that produced no pair: amount missing or
	// non-positive, or the record failed mid-generation. Zero-amount
	// entries are never fabricated.
	Skipped int
}

// Generator converts normalized records into balanced debit/credit pairs
// using the ledger rules registered for the document type. It is pure: the
// idempotence check (skip documents that already have entries) belongs to
// the orchestrator, before this runs.
type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate produces exactly one matched debit/credit pair per qualifying
// record. Both legs share the amount, date and a journal-group identifier.
// A record that fails generation is skipped; the rest of the batch
// continues.
func (g *Generator) Generate(docType constants.DocumentType, records []entity.Record, doc *entity.Document, createdBy string) Result {
	spec, ok := schema.ForType(docType)
	if !ok || !spec.HasLedgerRules() {
		return Result{Skipped: len(records)}
	}

	var res Result
	for idx, rec := range records {
		pair, ok := g.generatePair(spec, rec, idx, doc, createdBy)
		if !ok {
			res.Skipped++
			continue
		}
		res.Entries = append(res.Entries, pair...)
	}

	g.logger.Debug("journal.generate.ok",
		"document_id", doc.ID,
		"document_type", docType,
		"pairs", len(res.Entries)/2,
		"skipped", res.Skipped,
	)
	return res
}

func (g *Generator) generatePair(spec schema.TypeSpec, rec entity.Record, idx int, doc *entity.Document, createdBy string) (pair []entity.JournalEntry, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("journal.generate.record_failed", "document_id", doc.ID, "panic", r)
			pair, ok = nil, false
		}
	}()

	// First rule whose amount field is positive wins. Bank statements list
	// the two rules in debit-first order, so a row with both sides filled
	// (which real statements do not produce) posts as an expense.
	var rule *schema.LedgerRule
	var amount decimal.Decimal
	for i := range spec.LedgerRules {
		amt := rec[spec.LedgerRules[i].AmountField].Number()
		if amt > 0 {
			rule = &spec.LedgerRules[i]
			amount = decimal.NewFromFloat(amt).Round(2)
			break
		}
	}
	if rule == nil {
		return nil, false
	}

	entryDate := g.entryDate(spec, rec, doc)
	narration := rec[spec.DescField].Text()
	if narration == "" {
		narration = "Imported from " + doc.Filename
	}

	group := journalGroupID(doc.ID, idx)
	now := time.Now().UTC()
	debit := entity.JournalEntry{
		ID:             uuid.New(),
		JournalGroupID: group,
		EntryDate:      entryDate,
		AccountCode:    rule.Debit.Code,
		AccountName:    rule.Debit.Name,
		DebitAmount:    amount,
		CreditAmount:   decimal.Zero,
		Narration:      narration,
		DocumentID:     doc.ID,
		TenantID:       doc.TenantID,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}
	credit := entity.JournalEntry{
		ID:             uuid.New(),
		JournalGroupID: group,
		EntryDate:      entryDate,
		AccountCode:    rule.Credit.Code,
		AccountName:    rule.Credit.Name,
		DebitAmount:    decimal.Zero,
		CreditAmount:   amount,
		Narration:      narration,
		DocumentID:     doc.ID,
		TenantID:       doc.TenantID,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}
	return []entity.JournalEntry{debit, credit}, true
}

// journalGroupID derives a stable group id from the document and the
// record's batch position. Regenerating the same batch reproduces the
// same ids, so the unique index on (document, group, account) absorbs
// racing inserts instead of letting a second generation post fresh legs.
func journalGroupID(docID uuid.UUID, idx int) uuid.UUID {
	return uuid.NewSHA1(docID, []byte(fmt.Sprintf("journal-group-%d", idx)))
}

// entryDate reads the type's canonical date field, falling back to the
// document's upload time when the record has no usable date.
func (g *Generator) entryDate(spec schema.TypeSpec, rec entity.Record, doc *entity.Document) time.Time {
	v := rec[spec.DateField]
	switch v.Kind {
	case entity.KindDate:
		return v.Date
	case entity.KindString:
		if t, err := time.Parse("2006-01-02", v.Str); err == nil {
			return t
		}
	}
	return doc.CreatedAt
}
