package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/classify"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/docai"
	"github.com/ledgerflow/ledgerflow/internal/entity"
	"github.com/ledgerflow/ledgerflow/internal/extract"
	"github.com/ledgerflow/ledgerflow/internal/journal"
	"github.com/ledgerflow/ledgerflow/internal/normalize"
	"github.com/ledgerflow/ledgerflow/internal/repository"
	"github.com/ledgerflow/ledgerflow/internal/schema"
)

// defaultBatchSize bounds bulk-processing concurrency; it caps load on the
// external classification service and the database pool.
const defaultBatchSize = 3

// pdfConfidenceCap limits classification confidence for PDF sources; their
// extraction is best-effort, so high confidence from headers alone is not
// trustworthy.
const pdfConfidenceCap = 0.5

// sampleRowLimit is how many records are shared with the external
// classification service.
const sampleRowLimit = 5

// defaultMinConfidence is the classification confidence below which a
// document is flagged for review, whichever classifier produced it.
const defaultMinConfidence = 0.6

// AIClassifier is the optional out-of-process classification service.
type AIClassifier interface {
	Healthy(ctx context.Context) bool
	Classify(ctx context.Context, req docai.ClassifyRequest) (entity.ClassificationResult, error)
}

// Processor sequences the pipeline for one document:
// extract → classify → normalize → generate journal entries, advancing the
// document through uploaded → classified → extracted → completed, with
// failed reachable from any non-terminal state.
type Processor struct {
	logger      *slog.Logger
	extractor   *extract.Extractor
	classifier  *classify.Classifier
	normalizer  *normalize.Normalizer
	generator   *journal.Generator
	aiClient    AIClassifier // nil when no external service is configured
	docsRepo    repository.DocumentRepository
	journalRepo repository.JournalRepository
	auditRepo   repository.AuditRepository
	batchSize   int

	// minConfidence is the review threshold applied to every
	// classification result, local or remote.
	minConfidence float64
}

func NewProcessor(
	logger *slog.Logger,
	extractor *extract.Extractor,
	classifier *classify.Classifier,
	normalizer *normalize.Normalizer,
	generator *journal.Generator,
	aiClient AIClassifier,
	docsRepo repository.DocumentRepository,
	journalRepo repository.JournalRepository,
	auditRepo repository.AuditRepository,
	batchSize int,
	minConfidence float64,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	return &Processor{
		logger:      logger,
		extractor:   extractor,
		classifier:  classifier,
		normalizer:  normalizer,
		generator:   generator,
		aiClient:    aiClient,
		docsRepo:    docsRepo,
		journalRepo: journalRepo,
		auditRepo:   auditRepo,
		batchSize:   batchSize,

		minConfidence: minConfidence,
	}
}

// ProcessDocument runs the full pipeline for one document. Completed
// documents are a no-op; failed documents must go through Reprocess.
func (p *Processor) ProcessDocument(ctx context.Context, docID uuid.UUID) error {
	start := time.Now()

	doc, err := p.docsRepo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	switch doc.Status {
	case constants.StatusCompleted:
		p.logger.Info("pipeline.skip_completed", "document_id", docID)
		return nil
	case constants.StatusFailed:
		return common.NewAppError("INVALID_STATE", "failed document requires reprocess", common.ErrInvalidInput)
	}

	// 1) Content extraction. Extraction errors are fatal for the document.
	res, err := p.extractor.Extract(ctx, doc.SourcePath, doc.MimeType)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("extraction: %v", err), start)
		return err
	}

	// 2) Classification never fails hard; any trouble degrades confidence.
	cls := p.classifyDocument(ctx, res, doc.Filename)
	if cls.Confidence < p.minConfidence {
		cls.PotentialMisclassification = true
	}
	if err := p.docsRepo.SaveClassification(ctx, doc.ID, &cls); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("save classification: %v", err), start)
		return err
	}
	p.logger.Info("pipeline.classified",
		"document_id", doc.ID,
		"document_type", cls.DocumentType,
		"confidence", cls.Confidence,
		"flagged", cls.PotentialMisclassification,
	)

	// 3) Normalization; per-record issues are data-quality notes, not
	// failures.
	norm := p.normalizer.Normalize(res.Records, cls.DocumentType)
	if err := p.docsRepo.SaveExtractedData(ctx, doc.ID, norm.Records, norm.Issues); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("save extracted data: %v", err), start)
		return err
	}

	// 4) Journal generation, only for types that post. Skipped entirely
	// when entries already exist: retrying must never double-post.
	pairs := 0
	if spec, ok := schema.ForType(cls.DocumentType); ok && spec.HasLedgerRules() {
		existing, err := p.journalRepo.CountByDocument(ctx, doc.ID)
		if err != nil {
			p.fail(ctx, doc, fmt.Sprintf("count journal entries: %v", err), start)
			return err
		}
		if existing > 0 {
			p.logger.Info("journal.generate.skipped", "document_id", doc.ID, "existing_entries", existing)
		} else {
			gen := p.generator.Generate(cls.DocumentType, norm.Records, doc, doc.UploadedBy)
			if verrs := journal.ValidateBalanced(gen.Entries); len(verrs) > 0 {
				reason := fmt.Sprintf("journal validation: %v", verrs[0])
				p.fail(ctx, doc, reason, start)
				return common.NewAppError("JOURNAL_INVALID", reason, common.ErrValidation)
			}
			if _, err := p.journalRepo.InsertBatch(ctx, gen.Entries); err != nil {
				p.fail(ctx, doc, fmt.Sprintf("insert journal entries: %v", err), start)
				return err
			}
			pairs = len(gen.Entries) / 2
			if gen.Skipped > 0 {
				p.logger.Info("journal.generate.records_skipped", "document_id", doc.ID, "skipped", gen.Skipped)
			}
		}
	}

	if err := p.docsRepo.SetStatus(ctx, doc.ID, constants.StatusCompleted); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("set status: %v", err), start)
		return err
	}

	p.auditRepo.Record(ctx, entity.AuditEvent{
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Action:     "document.processed",
		Detail: fmt.Sprintf("type=%s records=%d issues=%d journal_pairs=%d",
			cls.DocumentType, len(norm.Records), len(norm.Issues), pairs),
		ElapsedMS: time.Since(start).Milliseconds(),
	})
	p.logger.Info("pipeline.completed",
		"document_id", doc.ID,
		"document_type", cls.DocumentType,
		"records", len(norm.Records),
		"journal_pairs", pairs,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// classifyDocument prefers the external service when one is configured and
// healthy, falling back to the local classifier on any error. The fallback
// is never a pipeline failure.
func (p *Processor) classifyDocument(ctx context.Context, res extract.ExtractionResult, filename string) entity.ClassificationResult {
	if p.aiClient != nil && p.aiClient.Healthy(ctx) {
		sample := res.Records
		if len(sample) > sampleRowLimit {
			sample = sample[:sampleRowLimit]
		}
		cls, err := p.aiClient.Classify(ctx, docai.ClassifyRequest{
			Filename:   filename,
			Headers:    res.Headers,
			SampleRows: sample,
		})
		if err == nil {
			return p.capForPDF(res, cls)
		}
		p.logger.Warn("pipeline.docai.fallback", "filename", filename, "error", err)
	}
	return p.capForPDF(res, p.classifier.Classify(res.Headers, res.Records, filename))
}

func (p *Processor) capForPDF(res extract.ExtractionResult, cls entity.ClassificationResult) entity.ClassificationResult {
	if res.Format == constants.PDF && cls.Confidence > pdfConfidenceCap {
		cls.Confidence = pdfConfidenceCap
		cls.PotentialMisclassification = true
		cls.Reasoning = strings.TrimRight(cls.Reasoning, "; ") + "; confidence capped: pdf extraction is best-effort"
	}
	return cls
}

func (p *Processor) fail(ctx context.Context, doc *entity.Document, reason string, start time.Time) {
	p.logger.Error("pipeline.failed", "document_id", doc.ID, "reason", reason)
	if err := p.docsRepo.MarkFailed(ctx, doc.ID, reason); err != nil {
		p.logger.Error("pipeline.mark_failed_error", "document_id", doc.ID, "error", err)
	}
	p.auditRepo.Record(ctx, entity.AuditEvent{
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Action:     "document.failed",
		Detail:     reason,
		ElapsedMS:  time.Since(start).Milliseconds(),
	})
}

// BatchResult summarizes a bulk-processing run.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    map[uuid.UUID]string
}

// ProcessBatch processes documents in bounded concurrent windows. A failed
// document never aborts the rest of the batch. onProgress, when non-nil,
// receives (completed, total) after each window.
func (p *Processor) ProcessBatch(ctx context.Context, ids []uuid.UUID, onProgress func(completed, total int)) BatchResult {
	result := BatchResult{Total: len(ids), Errors: make(map[uuid.UUID]string)}
	var mu sync.Mutex

	for offset := 0; offset < len(ids); offset += p.batchSize {
		end := offset + p.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		window := ids[offset:end]

		var wg sync.WaitGroup
		for _, id := range window {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				err := p.ProcessDocument(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.Errors[id] = err.Error()
				} else {
					result.Succeeded++
				}
			}(id)
		}
		wg.Wait()

		if onProgress != nil {
			onProgress(result.Succeeded+result.Failed, result.Total)
		}
	}

	p.logger.Info("pipeline.batch_done",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result
}

// Reprocess clears a document's derived state (journal entries first, then
// classification and extracted data) and runs the pipeline again from
// uploaded. The unique index on journal legs backstops racing calls.
func (p *Processor) Reprocess(ctx context.Context, docID uuid.UUID) error {
	doc, err := p.docsRepo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	cleared, err := p.journalRepo.DeleteByDocument(ctx, docID)
	if err != nil {
		return err
	}
	if err := p.docsRepo.ResetForReprocess(ctx, docID); err != nil {
		return err
	}
	p.auditRepo.Record(ctx, entity.AuditEvent{
		DocumentID: docID,
		TenantID:   doc.TenantID,
		Action:     "document.reprocess",
		Detail:     fmt.Sprintf("cleared_journal_entries=%d", cleared),
	})
	p.logger.Info("pipeline.reprocess", "document_id", docID, "cleared_entries", cleared)

	return p.ProcessDocument(ctx, docID)
}
