package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
	"github.com/ledgerflow/ledgerflow/internal/repository"
)

// Service is a tiny façade over repositories that renders journal entries
// for download.
type Service struct {
	journalRepo repository.JournalRepository
	logger      *slog.Logger
}

func NewService(journalRepo repository.JournalRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{journalRepo: journalRepo, logger: logger}
}

var exportHeaders = []string{
	"Date",
	"Description",
	"Debit Account",
	"Credit Account",
	"Amount",
	"Source Document",
	"Reference",
}

// row is one posting pair flattened for export.
type row struct {
	date          string
	description   string
	debitAccount  string
	creditAccount string
	amount        string
	document      string
	reference     string
}

// pairRows collapses debit/credit legs into one row per journal group,
// preserving entry order.
func pairRows(entries []entity.JournalEntry) []row {
	type pair struct {
		debit  *entity.JournalEntry
		credit *entity.JournalEntry
	}
	pairs := make(map[uuid.UUID]*pair)
	var order []uuid.UUID

	for i := range entries {
		e := &entries[i]
		p, ok := pairs[e.JournalGroupID]
		if !ok {
			p = &pair{}
			pairs[e.JournalGroupID] = p
			order = append(order, e.JournalGroupID)
		}
		if e.DebitAmount.GreaterThan(decimal.Zero) {
			p.debit = e
		} else {
			p.credit = e
		}
	}

	rows := make([]row, 0, len(order))
	for _, gid := range order {
		p := pairs[gid]
		if p.debit == nil || p.credit == nil {
			// half a pair should not exist; export what is there rather
			// than dropping it silently
			leg := p.debit
			if leg == nil {
				leg = p.credit
			}
			rows = append(rows, row{
				date:        leg.EntryDate.Format("2006-01-02"),
				description: leg.Narration,
				amount:      leg.DebitAmount.Add(leg.CreditAmount).StringFixed(2),
				document:    leg.DocumentID.String(),
				reference:   gid.String(),
			})
			continue
		}
		rows = append(rows, row{
			date:          p.debit.EntryDate.Format("2006-01-02"),
			description:   p.debit.Narration,
			debitAccount:  fmt.Sprintf("%s %s", p.debit.AccountCode, p.debit.AccountName),
			creditAccount: fmt.Sprintf("%s %s", p.credit.AccountCode, p.credit.AccountName),
			amount:        p.debit.DebitAmount.StringFixed(2),
			document:      p.debit.DocumentID.String(),
			reference:     gid.String(),
		})
	}
	return rows
}

// ExportJournalCSV returns the tenant's journal as CSV for the given date
// window. Nil bounds mean unbounded on that side.
func (s *Service) ExportJournalCSV(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	entries, err := s.journalRepo.ListByTenant(ctx, tenantID, normalizeDate(from), normalizeDate(to))
	if err != nil {
		return nil, common.WrapError(err, "query journal entries")
	}
	rows := pairRows(entries)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, common.WrapError(err, "csv write")
	}
	for _, r := range rows {
		if err := w.Write([]string{r.date, r.description, r.debitAccount, r.creditAccount, r.amount, r.document, r.reference}); err != nil {
			return nil, common.WrapError(err, "csv write")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, common.WrapError(err, "csv flush")
	}

	s.logger.Info("export.csv.ok",
		"tenant_id", tenantID.String(),
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportJournalXLSX returns the tenant's journal as an XLSX workbook for the
// given date window.
func (s *Service) ExportJournalXLSX(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	entries, err := s.journalRepo.ListByTenant(ctx, tenantID, normalizeDate(from), normalizeDate(to))
	if err != nil {
		return nil, common.WrapError(err, "query journal entries")
	}
	rows := pairRows(entries)

	f := excelize.NewFile()
	const sheet = "Journal"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.date)
		write(2, r.description)
		write(3, r.debitAccount)
		write(4, r.creditAccount)
		write(5, r.amount)
		write(6, r.document)
		write(7, r.reference)
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 42) // description
	_ = f.SetColWidth(sheet, "C", "D", 26) // accounts
	_ = f.SetColWidth(sheet, "E", "E", 14) // amount
	_ = f.SetColWidth(sheet, "F", "G", 38) // ids

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "xlsx write")
	}

	s.logger.Info("export.xlsx.ok",
		"tenant_id", tenantID.String(),
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
