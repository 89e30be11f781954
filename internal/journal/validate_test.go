package journal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/internal/entity"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func pair(amount string) []entity.JournalEntry {
	group := uuid.New()
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return []entity.JournalEntry{
		{
			ID:             uuid.New(),
			JournalGroupID: group,
			EntryDate:      date,
			AccountCode:    "1200",
			DebitAmount:    dec(amount),
			CreditAmount:   decimal.Zero,
		},
		{
			ID:             uuid.New(),
			JournalGroupID: group,
			EntryDate:      date,
			AccountCode:    "4100",
			DebitAmount:    decimal.Zero,
			CreditAmount:   dec(amount),
		},
	}
}

func TestValidateBalanced_CleanBatch(t *testing.T) {
	var entries []entity.JournalEntry
	entries = append(entries, pair("100.00")...)
	entries = append(entries, pair("2500.75")...)
	assert.Empty(t, ValidateBalanced(entries))
}

func TestValidateBalanced_UnbalancedGroup(t *testing.T) {
	entries := pair("100.00")
	entries[1].CreditAmount = dec("99.00")

	errs := ValidateBalanced(entries)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Description, "!=")
}

func TestValidateBalanced_LegWithBothSides(t *testing.T) {
	entries := pair("50.00")
	entries[0].CreditAmount = dec("50.00")

	errs := ValidateBalanced(entries)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Description == "leg must have exactly one of debit or credit" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateBalanced_LegWithNeitherSide(t *testing.T) {
	entries := pair("50.00")
	entries[0].DebitAmount = decimal.Zero

	errs := ValidateBalanced(entries)
	require.NotEmpty(t, errs)
}

func TestValidateBalanced_TooManyDecimalPlaces(t *testing.T) {
	entries := pair("10.005")
	errs := ValidateBalanced(entries)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Description, "decimal places")
}

func TestValidateBalanced_EmptyBatch(t *testing.T) {
	assert.Empty(t, ValidateBalanced(nil))
}
