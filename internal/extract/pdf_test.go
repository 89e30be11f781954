package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/constants"
)

// stubRunner stands in for the pdftotext shell-out.
type stubRunner struct {
	out []byte
	err error
}

func (s stubRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return s.out, []byte("stub stderr"), s.err
}

const statementText = `Bank Statement January 2025

Date         Description          Amount
15/01/2025   Opening Balance      250000
16/01/2025   ATM Withdrawal       -2000
`

func TestExtract_PDFTextPath(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	e.runner = stubRunner{out: []byte(statementText)}
	path := writeFile(t, "statement.pdf", "%PDF-1.4")

	res, err := e.Extract(context.Background(), path, "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, constants.PDF, res.Format)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, res.Headers)
	require.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, "Opening Balance", res.Records[0]["Description"].Text())
	assert.Equal(t, "15/01/2025", res.Records[0]["Date"].Text())
	assert.InDelta(t, 0.4, res.Confidence, 1e-9)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "best-effort")
}

func TestExtract_PDFFallsBackWhenPdftotextFails(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	e.runner = stubRunner{err: errors.New("exec: pdftotext: not found")}
	path := writeFile(t, "statement.pdf", "%PDF-1.4")

	res, err := e.Extract(context.Background(), path, "application/pdf")
	require.NoError(t, err)

	// Fixed fallback shape: canonical headers, never fabricated rows.
	assert.Equal(t, constants.PDF, res.Format)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, res.Headers)
	assert.Zero(t, res.TotalRecords)
	assert.InDelta(t, 0.2, res.Confidence, 1e-9)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "unavailable")
}

func TestExtract_PDFFallsBackWhenNoTableShape(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	e.runner = stubRunner{out: []byte("Dear customer,\nthank you for banking with us.\n")}
	path := writeFile(t, "letter.pdf", "%PDF-1.4")

	res, err := e.Extract(context.Background(), path, "application/pdf")
	require.NoError(t, err)
	assert.Zero(t, res.TotalRecords)
	assert.InDelta(t, 0.2, res.Confidence, 1e-9)
}

func TestPDFTable_SingleColumnLinesAreIgnored(t *testing.T) {
	headers, rows := pdfTable("Title Line\n\nDate    Amount\n01/01/2025    100\n")
	assert.Equal(t, []string{"Date", "Amount"}, headers)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"01/01/2025", "100"}, rows[0])
}
