package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// Config holds content-extraction settings.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MaxPDFKB  int    // cap on pdftotext output retained, 0 = default
}

// ExtractionResult is the ordered row content of one file.
type ExtractionResult struct {
	Headers      []string
	Records      []entity.Record
	TotalRecords int
	Format       string // constants.CSV | XLSX | XLS | PDF
	Confidence   float64
	Warnings     []string
	Duration     time.Duration
}

// Extractor reads raw files into records. Stateless; construct once and
// share.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.MaxPDFKB <= 0 {
		cfg.MaxPDFKB = 4096
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract picks a strategy from the declared MIME type, falling back to the
// file extension. An empty file yields zero records, not an error.
func (e *Extractor) Extract(ctx context.Context, path, mimeType string) (ExtractionResult, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("stat %s", path), common.ErrFileNotFound)
	}

	format := constants.MapMIMEToFormat(mimeType)
	if format == "" {
		format = constants.MapExtToFormat(filepath.Ext(path))
	}

	var res ExtractionResult
	var err error
	switch format {
	case constants.CSV:
		res, err = e.extractCSV(path)
	case constants.XLSX:
		res, err = e.extractXLSX(path)
	case constants.XLS:
		res, err = e.extractXLS(path)
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	default:
		return ExtractionResult{}, common.ExtractionError(
			fmt.Sprintf("extension %q", constants.NormalizeExt(filepath.Ext(path))),
			common.ErrUnsupportedFormat,
		)
	}
	if err != nil {
		e.logger.Error("extract.failed", "path", path, "format", format, "error", err)
		return res, err
	}

	res.Format = format
	res.TotalRecords = len(res.Records)
	res.Duration = time.Since(start)
	e.logger.Debug("extract.ok",
		"path", path,
		"format", format,
		"headers", len(res.Headers),
		"records", res.TotalRecords,
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// rowsToRecords turns a header row plus data rows into records keyed by
// header name. Fully-empty rows are dropped; cells past the header row are
// ignored.
func rowsToRecords(headers []string, rows [][]string) []entity.Record {
	records := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		if emptyRow(row) {
			continue
		}
		rec := make(entity.Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = entity.StringValue(strings.TrimSpace(row[i]))
			} else {
				rec[h] = entity.NullValue()
			}
		}
		records = append(records, rec)
	}
	return records
}

// headerName trims a raw header cell, substituting a positional name for
// blank cells so their column data is not lost.
func headerName(h string, idx int) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return fmt.Sprintf("column_%d", idx+1)
	}
	return h
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
