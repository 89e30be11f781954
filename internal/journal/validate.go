package journal

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// ValidationError describes a single double-entry invariant violation.
type ValidationError struct {
	GroupID     uuid.UUID
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("journal group %s: %s", e.GroupID, e.Description)
}

// ValidateBalanced checks a generated batch before it is persisted:
// every journal group balances (sum of debits equals sum of credits),
// every leg carries exactly one side, and amounts have at most two decimal
// places. Returns nil when the batch is sound.
func ValidateBalanced(entries []entity.JournalEntry) []ValidationError {
	var errs []ValidationError

	groups := make(map[uuid.UUID][]entity.JournalEntry)
	var order []uuid.UUID
	for _, e := range entries {
		if _, seen := groups[e.JournalGroupID]; !seen {
			order = append(order, e.JournalGroupID)
		}
		groups[e.JournalGroupID] = append(groups[e.JournalGroupID], e)
	}

	for _, g := range order {
		totalDebit := decimal.Zero
		totalCredit := decimal.Zero
		for _, e := range groups[g] {
			totalDebit = totalDebit.Add(e.DebitAmount)
			totalCredit = totalCredit.Add(e.CreditAmount)
		}
		if !totalDebit.Equal(totalCredit) {
			errs = append(errs, ValidationError{
				GroupID:     g,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
			})
		}
	}

	two := decimal.NewFromInt(100)
	for _, e := range entries {
		hasDebit := !e.DebitAmount.IsZero()
		hasCredit := !e.CreditAmount.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, ValidationError{
				GroupID:     e.JournalGroupID,
				Description: "leg must have exactly one of debit or credit",
			})
		}
		if !e.DebitAmount.Mul(two).Equal(e.DebitAmount.Mul(two).Floor()) {
			errs = append(errs, ValidationError{
				GroupID:     e.JournalGroupID,
				Description: fmt.Sprintf("debit %s has more than 2 decimal places", e.DebitAmount),
			})
		}
		if !e.CreditAmount.Mul(two).Equal(e.CreditAmount.Mul(two).Floor()) {
			errs = append(errs, ValidationError{
				GroupID:     e.JournalGroupID,
				Description: fmt.Sprintf("credit %s has more than 2 decimal places", e.CreditAmount),
			})
		}
	}

	return errs
}
