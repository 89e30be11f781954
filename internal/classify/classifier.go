package classify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// Confidence below this marks a result as a potential misclassification.
const misclassificationThreshold = 0.6

// fallbackConfidence is used when no signal proposes anything, or when
// classification itself blows up and we fall back to the filename alone.
const fallbackConfidence = 0.2

// Classifier assigns a document-type label from filename, headers and row
// content. It is stateless; construct once and share.
type Classifier struct {
	logger *slog.Logger
}

func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Classify runs weighted multi-signal voting over filename, headers and
// records. It always returns a result: any internal failure degrades to a
// filename-only fallback rather than an error.
func (c *Classifier) Classify(headers []string, records []entity.Record, filename string) (result entity.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classify.panic_recovered", "filename", filename, "panic", r)
			result = c.fallbackFromFilename(filename, fmt.Sprintf("classification failed internally (%v)", r))
		}
	}()

	// Cryptic exports sometimes ship data without a header row; fall back
	// to the first record's keys so the header signal still has input.
	if len(headers) == 0 && len(records) > 0 {
		for k := range records[0] {
			headers = append(headers, k)
		}
	}

	type tally struct {
		score      float64
		indicators []string
		notes      []string
	}
	scores := make(map[constants.DocumentType]*tally)
	add := func(v vote, weight float64) {
		t, ok := scores[v.Type]
		if !ok {
			t = &tally{}
			scores[v.Type] = t
		}
		t.score += v.Confidence * weight
		t.indicators = append(t.indicators, v.Indicators...)
		t.notes = append(t.notes, v.Note)
	}

	for _, v := range filenameVotes(filename) {
		add(v, filenameWeight)
	}
	hv := headerVote(headers)
	if hv != nil {
		add(*hv, headerWeight)
	}
	if sv := structureVote(headers, hv); sv != nil {
		add(*sv, structureWeight)
	}

	if len(scores) == 0 {
		return entity.ClassificationResult{
			DocumentType:               constants.Other,
			Confidence:                 fallbackConfidence,
			Reasoning:                  "no filename, header or structure signal matched a known document type",
			KeyIndicators:              []string{},
			PotentialMisclassification: true,
		}
	}

	// Winner: highest accumulated score; ties break on distinct indicator
	// count, then on the fixed priority order of ClassifiableTypes.
	var winner constants.DocumentType
	var wt *tally
	for _, t := range constants.ClassifiableTypes {
		s, ok := scores[t]
		if !ok {
			continue
		}
		if wt == nil || s.score > wt.score ||
			(s.score == wt.score && len(distinct(s.indicators)) > len(distinct(wt.indicators))) {
			winner, wt = t, s
		}
	}

	conf := wt.score
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0 {
		conf = 0
	}
	res := entity.ClassificationResult{
		DocumentType:               winner,
		Confidence:                 conf,
		Reasoning:                  strings.Join(wt.notes, "; "),
		KeyIndicators:              distinct(wt.indicators),
		PotentialMisclassification: conf < misclassificationThreshold,
	}
	c.logger.Debug("classify.ok",
		"filename", filename,
		"document_type", res.DocumentType,
		"confidence", res.Confidence,
		"indicators", len(res.KeyIndicators),
	)
	return res
}

// fallbackFromFilename builds the low-confidence result used when full
// classification cannot run. Only the filename keyword dictionary is
// consulted.
func (c *Classifier) fallbackFromFilename(filename, reason string) entity.ClassificationResult {
	docType := constants.Other
	indicators := []string{}
	if votes := filenameVotes(filename); len(votes) > 0 {
		best := votes[0]
		for _, v := range votes[1:] {
			if v.Confidence > best.Confidence {
				best = v
			}
		}
		docType = best.Type
		indicators = best.Indicators
	}
	return entity.ClassificationResult{
		DocumentType:               docType,
		Confidence:                 fallbackConfidence,
		Reasoning:                  reason + "; fell back to filename heuristic",
		KeyIndicators:              indicators,
		PotentialMisclassification: true,
	}
}

func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
