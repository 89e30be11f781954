package extract

import (
	"context"
	"regexp"
	"strings"
)

// PDF extraction is best-effort: there is no reliable generic parser for
// tabular PDFs, so we shell out to pdftotext and split on column gaps.
// Callers must treat PDF confidence as lower than CSV/XLSX.
const (
	pdfTextConfidence   = 0.4
	pdfSampleConfidence = 0.2
)

var columnGapRe = regexp.MustCompile(`\s{2,}`)

// extractPDF runs pdftotext -layout and reconstructs a table from
// whitespace-aligned columns. When the binary is missing or no table shape
// can be recovered, the documented fixed sample shape is returned with very
// low confidence instead of failing the document.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		e.logger.Warn("extract.pdf.pdftotext_unavailable", "path", path, "error", err, "stderr", string(errb))
		return e.pdfSampleShape("pdftotext unavailable: " + err.Error()), nil
	}
	if limit := e.cfg.MaxPDFKB << 10; len(out) > limit {
		out = out[:limit]
	}

	headers, rows := pdfTable(string(out))
	if len(headers) == 0 {
		return e.pdfSampleShape("no tabular layout recovered from pdf text"), nil
	}

	return ExtractionResult{
		Headers:    headers,
		Records:    rowsToRecords(headers, rows),
		Confidence: pdfTextConfidence,
		Warnings:   []string{"pdf extraction is best-effort; verify amounts before posting"},
	}, nil
}

// pdfTable finds the first line that splits into two or more columns on
// runs of whitespace and treats it as the header row; subsequent multi-
// column lines become data rows.
func pdfTable(text string) ([]string, [][]string) {
	var headers []string
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := columnGapRe.Split(strings.TrimSpace(line), -1)
		if len(cols) < 2 {
			continue
		}
		if headers == nil {
			headers = make([]string, len(cols))
			for i, c := range cols {
				headers[i] = headerName(c, i)
			}
			continue
		}
		rows = append(rows, cols)
	}
	return headers, rows
}

// pdfSampleShape is the fixed fallback shape: the canonical bank-statement
// style header set with zero records. No rows are ever fabricated; invented
// amounts would flow straight into journal postings.
func (e *Extractor) pdfSampleShape(reason string) ExtractionResult {
	return ExtractionResult{
		Headers:    []string{"Date", "Description", "Amount"},
		Records:    nil,
		Confidence: pdfSampleConfidence,
		Warnings:   []string{"pdf table extraction unavailable: " + reason},
	}
}
