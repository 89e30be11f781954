package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtract_CSV(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "sales.csv",
		"Customer,Invoice,Amount\nAcme Traders,INV-1,1500\nBharat Supplies,INV-2,2000\n")

	res, err := e.Extract(context.Background(), path, "text/csv")
	require.NoError(t, err)

	assert.Equal(t, constants.CSV, res.Format)
	assert.Equal(t, []string{"Customer", "Invoice", "Amount"}, res.Headers)
	require.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, "Acme Traders", res.Records[0]["Customer"].Text())
	assert.Equal(t, "1500", res.Records[0]["Amount"].Text())
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
}

func TestExtract_CSVSkipsEmptyRows(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "gaps.csv",
		"A,B\n1,2\n,\n3,4\n")

	res, err := e.Extract(context.Background(), path, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRecords)
}

func TestExtract_EmptyCSVIsZeroRecordsNotError(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "empty.csv", "")

	res, err := e.Extract(context.Background(), path, "text/csv")
	require.NoError(t, err)
	assert.Empty(t, res.Headers)
	assert.Zero(t, res.TotalRecords)
}

func TestExtract_HeaderOnlyCSV(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "headeronly.csv", "Date,Description,Amount\n")

	res, err := e.Extract(context.Background(), path, "text/csv")
	require.NoError(t, err)
	assert.Len(t, res.Headers, 3)
	assert.Zero(t, res.TotalRecords)
}

func TestExtract_BlankHeaderCellsGetPositionalNames(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "blankheader.csv", "Date,,Amount\n1,2,3\n")

	res, err := e.Extract(context.Background(), path, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "column_2", "Amount"}, res.Headers)
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "text/csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFileNotFound)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "notes.txt", "hello")

	_, err := e.Extract(context.Background(), path, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestExtract_XLSX(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Customer", "Invoice", "Amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Acme Traders", "INV-1", 1500}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Bharat Supplies", "INV-2", 2000}))
	path := filepath.Join(t.TempDir(), "sales_register.xlsx")
	require.NoError(t, f.SaveAs(path))

	res, err := e.Extract(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, constants.XLSX, res.Format)
	assert.Equal(t, []string{"Customer", "Invoice", "Amount"}, res.Headers)
	require.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, "Acme Traders", res.Records[0]["Customer"].Text())
}

func TestExtract_CorruptXLSX(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeFile(t, "broken.xlsx", "this is not a zip archive")

	_, err := e.Extract(context.Background(), path, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCorruptFile)
}

func TestExtract_MIMEOverridesExtension(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	// CSV content behind a misleading extension, but a correct MIME type.
	path := writeFile(t, "export.dat", "A,B\n1,2\n")

	res, err := e.Extract(context.Background(), path, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, constants.CSV, res.Format)
	assert.Equal(t, 1, res.TotalRecords)
}
