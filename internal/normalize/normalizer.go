package normalize

import (
	"fmt"
	"log/slog"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/entity"
	"github.com/ledgerflow/ledgerflow/internal/schema"
)

// additiveColumnThreshold splits the two mapping policies: records with more
// populated columns than this keep every original column and gain canonical
// aliases; records at or below it are replaced by canonical fields only.
// Wide production files vary too much for destructive mapping to be safe.
const additiveColumnThreshold = 5

// Result is the outcome of normalizing one batch of records.
type Result struct {
	Records []entity.Record
	// Issues holds per-record data-quality notes: unparseable dates,
	// coerced amounts, dropped rows. Issues never abort the batch.
	Issues  []string
	Dropped int
}

// Normalizer maps source columns onto the canonical field set for a document
// type and coerces values. Stateless; construct once and share.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize applies the document type's column mappings, transforms and
// validators. Types without a registered spec (notably "other") pass records
// through unchanged.
func (n *Normalizer) Normalize(records []entity.Record, docType constants.DocumentType) Result {
	spec, ok := schema.ForType(docType)
	if !ok {
		return Result{Records: records}
	}

	out := Result{Records: make([]entity.Record, 0, len(records))}
	for i, rec := range records {
		var norm entity.Record
		var issues []string
		if rec.PopulatedColumns() > additiveColumnThreshold {
			norm, issues = n.applyAdditive(spec, rec)
		} else {
			var dropped bool
			norm, issues, dropped = n.applyRestrictive(spec, rec)
			if dropped {
				out.Dropped++
			}
		}
		for _, issue := range issues {
			out.Issues = append(out.Issues, fmt.Sprintf("row %d: %s", i+1, issue))
		}
		if norm != nil {
			out.Records = append(out.Records, norm)
		}
	}

	n.logger.Debug("normalize.ok",
		"document_type", docType,
		"in", len(records),
		"out", len(out.Records),
		"dropped", out.Dropped,
		"issues", len(out.Issues),
	)
	return out
}

// applyRestrictive replaces the record with canonical fields only and runs
// the type's validators. A failing record is dropped (nil) with an issue.
func (n *Normalizer) applyRestrictive(spec schema.TypeSpec, rec entity.Record) (entity.Record, []string, bool) {
	norm := make(entity.Record, len(rec))
	var issues []string
	for col, v := range rec {
		canon := spec.CanonicalField(col)
		if canon == "" {
			continue
		}
		tv, issue := n.transform(spec, canon, v)
		if issue != "" {
			issues = append(issues, issue)
		}
		norm[canon] = tv
	}
	for _, validate := range spec.Validators {
		if issue := validate(norm); issue != "" {
			issues = append(issues, "record dropped: "+issue)
			return nil, issues, true
		}
	}
	return norm, issues, false
}

// applyAdditive keeps every original column and adds canonical aliases
// alongside. No validators run; on wide files dropping rows loses
// legitimate data.
func (n *Normalizer) applyAdditive(spec schema.TypeSpec, rec entity.Record) (entity.Record, []string) {
	norm := rec.Clone()
	var issues []string
	for col, v := range rec {
		canon := spec.CanonicalField(col)
		if canon == "" || canon == col {
			continue
		}
		tv, issue := n.transform(spec, canon, v)
		if issue != "" {
			issues = append(issues, issue)
		}
		norm[canon] = tv
	}
	return norm, issues
}

func (n *Normalizer) transform(spec schema.TypeSpec, canon string, v entity.Value) (entity.Value, string) {
	t, ok := spec.Transforms[canon]
	if !ok {
		return v, ""
	}
	return t(v)
}
