package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// csvConfidence applies to both CSV and native spreadsheet extraction;
// these formats carry their structure explicitly.
const csvConfidence = 0.9

// extractCSV stream-parses row by row. The first row defines the headers;
// each subsequent non-empty row becomes one record keyed by header.
func (e *Extractor) extractCSV(path string) (ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("open %s", path), common.ErrFileNotFound)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.csv.close_error", "path", path, "error", cerr)
		}
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var headers []string
	var records []entity.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("parse csv %s", path), common.ErrCorruptFile)
		}
		if headers == nil {
			if emptyRow(row) {
				continue
			}
			headers = make([]string, len(row))
			for i, h := range row {
				headers[i] = headerName(h, i)
			}
			continue
		}
		if emptyRow(row) {
			continue
		}
		rec := make(entity.Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = entity.StringValue(row[i])
			} else {
				rec[h] = entity.NullValue()
			}
		}
		records = append(records, rec)
	}

	// An empty file is zero records, not an error.
	return ExtractionResult{
		Headers:    headers,
		Records:    records,
		Confidence: csvConfidence,
	}, nil
}
