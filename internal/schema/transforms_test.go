package schema

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/internal/entity"
)

func TestParseCurrency_SymbolsAndSeparators(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"₹1,23,456.78", 123456.78},
		{"$1,500.00", 1500},
		{"Rs. 2500", 2500},
		{"INR 300", 300},
		{"1 234,56", 123456}, // space separator stripped, comma stripped
		{"42", 42},
		{"-99.95", -99.95},
	}
	for _, tc := range cases {
		v, issue := ParseCurrency(entity.StringValue(tc.in))
		assert.Empty(t, issue, "input %q", tc.in)
		assert.Equal(t, entity.KindNumber, v.Kind, "input %q", tc.in)
		assert.InDelta(t, tc.want, v.Num, 1e-9, "input %q", tc.in)
	}
}

func TestParseCurrency_ParenthesesAreNegative(t *testing.T) {
	v, issue := ParseCurrency(entity.StringValue("(500.25)"))
	assert.Empty(t, issue)
	assert.InDelta(t, -500.25, v.Num, 1e-9)
}

func TestParseCurrency_BlankIsZeroWithoutIssue(t *testing.T) {
	for _, in := range []entity.Value{entity.StringValue(""), entity.StringValue("   "), entity.NullValue()} {
		v, issue := ParseCurrency(in)
		assert.Empty(t, issue)
		assert.Zero(t, v.Num)
	}
}

func TestParseCurrency_UnparseableCoercesToZeroWithIssue(t *testing.T) {
	v, issue := ParseCurrency(entity.StringValue("abc"))
	assert.NotEmpty(t, issue)
	assert.Equal(t, entity.KindNumber, v.Kind)
	assert.Zero(t, v.Num)
}

func TestParseCurrency_NumberPassesThrough(t *testing.T) {
	v, issue := ParseCurrency(entity.NumberValue(17.5))
	assert.Empty(t, issue)
	assert.InDelta(t, 17.5, v.Num, 1e-9)
}

func TestNumberValue_NeverNaNOrInf(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		v := entity.NumberValue(f)
		assert.Zero(t, v.Num)
		assert.False(t, math.IsNaN(v.Num))
	}
}

func TestParseDate_DayFirstWinsOnAmbiguity(t *testing.T) {
	v, issue := ParseDate(entity.StringValue("03/04/2025"))
	require.Empty(t, issue)
	require.Equal(t, entity.KindDate, v.Kind)
	assert.Equal(t, time.April, v.Date.Month())
	assert.Equal(t, 3, v.Date.Day())
}

func TestParseDate_CommonLayouts(t *testing.T) {
	cases := map[string]string{
		"31/12/2025":  "2025-12-31",
		"2025-12-31":  "2025-12-31",
		"31-12-2025":  "2025-12-31",
		"2 Jan 2026":  "2026-01-02",
		"Jan 2, 2026": "2026-01-02",
	}
	for in, want := range cases {
		v, issue := ParseDate(entity.StringValue(in))
		require.Empty(t, issue, "input %q", in)
		require.Equal(t, entity.KindDate, v.Kind, "input %q", in)
		assert.Equal(t, want, v.Date.Format("2006-01-02"), "input %q", in)
	}
}

func TestParseDate_UnparseableKeptAsStringWithIssue(t *testing.T) {
	v, issue := ParseDate(entity.StringValue("sometime in spring"))
	assert.NotEmpty(t, issue)
	assert.Equal(t, entity.KindString, v.Kind)
	assert.Equal(t, "sometime in spring", v.Str)
}

func TestParseDate_BlankPassesThrough(t *testing.T) {
	v, issue := ParseDate(entity.StringValue(""))
	assert.Empty(t, issue)
	assert.Equal(t, entity.KindString, v.Kind)
}

func TestTrimText(t *testing.T) {
	v, issue := TrimText(entity.StringValue("  Acme Traders  "))
	assert.Empty(t, issue)
	assert.Equal(t, "Acme Traders", v.Str)
}

func TestRegistry_EveryTypeHasDateAndDescFields(t *testing.T) {
	for docType, spec := range registry {
		assert.NotEmpty(t, spec.DateField, "type %s", docType)
		assert.NotEmpty(t, spec.DescField, "type %s", docType)
		assert.NotEmpty(t, spec.ColumnMappings, "type %s", docType)
	}
}

func TestCanonicalField_CaseInsensitive(t *testing.T) {
	spec, ok := ForType("bank_statement")
	require.True(t, ok)
	assert.Equal(t, "transaction_date", spec.CanonicalField("  DATE "))
	assert.Equal(t, "description", spec.CanonicalField("Narration"))
	assert.Equal(t, "", spec.CanonicalField("no such column"))
}
