package schema

import (
	"fmt"

	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// Validator inspects a normalized record and returns a non-empty issue
// string when the record should be excluded from the output batch.
type Validator func(r entity.Record) string

// RequirePositive rejects records whose canonical numeric field is missing,
// zero or negative.
func RequirePositive(field string) Validator {
	return func(r entity.Record) string {
		v, ok := r[field]
		if !ok || v.Number() <= 0 {
			return fmt.Sprintf("%s must be positive, got %q", field, v.Text())
		}
		return ""
	}
}

// RequireNonBlank rejects records whose canonical text field is missing or
// blank.
func RequireNonBlank(field string) Validator {
	return func(r entity.Record) string {
		v, ok := r[field]
		if !ok || v.IsEmpty() {
			return fmt.Sprintf("%s is required", field)
		}
		return ""
	}
}
