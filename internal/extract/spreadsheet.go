package extract

import (
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerflow/ledgerflow/internal/common"
)

// extractXLSX reads the first sheet only. The first non-empty row becomes
// the headers; fully-empty rows and fully-empty columns are dropped.
func (e *Extractor) extractXLSX(path string) (ExtractionResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("open xlsx %s", path), common.ErrCorruptFile)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.xlsx.close_error", "path", path, "error", cerr)
		}
	}()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("read xlsx %s", path), common.ErrCorruptFile)
	}
	return sheetToResult(rows), nil
}

// extractXLS handles legacy Excel workbooks.
func (e *Extractor) extractXLS(path string) (ExtractionResult, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("open xls %s", path), common.ErrCorruptFile)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return ExtractionResult{}, common.ExtractionError(fmt.Sprintf("xls %s has no sheets", path), common.ErrCorruptFile)
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return sheetToResult(rows), nil
}

// sheetToResult applies the shared spreadsheet shape rules: first non-empty
// row is the header row, fully-empty rows and columns are dropped.
func sheetToResult(rows [][]string) ExtractionResult {
	headerIdx := -1
	for i, row := range rows {
		if !emptyRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		// Blank sheet: zero records, not an error.
		return ExtractionResult{Confidence: csvConfidence}
	}

	rawHeaders := rows[headerIdx]
	data := rows[headerIdx+1:]

	// A column is kept when its header cell or any data cell is non-blank.
	width := len(rawHeaders)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}
	keep := make([]bool, width)
	for i := 0; i < width; i++ {
		if i < len(rawHeaders) && strings.TrimSpace(rawHeaders[i]) != "" {
			keep[i] = true
			continue
		}
		for _, row := range data {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				keep[i] = true
				break
			}
		}
	}

	var headers []string
	var keptIdx []int
	for i := 0; i < width; i++ {
		if !keep[i] {
			continue
		}
		h := ""
		if i < len(rawHeaders) {
			h = rawHeaders[i]
		}
		headers = append(headers, headerName(h, i))
		keptIdx = append(keptIdx, i)
	}

	projected := make([][]string, 0, len(data))
	for _, row := range data {
		cells := make([]string, len(keptIdx))
		for n, i := range keptIdx {
			if i < len(row) {
				cells[n] = row[i]
			}
		}
		projected = append(projected, cells)
	}

	return ExtractionResult{
		Headers:    headers,
		Records:    rowsToRecords(headers, projected),
		Confidence: csvConfidence,
	}
}
