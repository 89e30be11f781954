package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// Transform coerces one raw cell into its canonical type. A non-empty issue
// string reports a data-quality problem; a value is always returned, never
// NaN for numeric transforms.
type Transform func(v entity.Value) (entity.Value, string)

var currencyReplacer = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "", "¥", "",
	",", "", " ", "", "\u00a0", "",
	"INR", "", "USD", "", "EUR", "", "Rs.", "", "Rs", "",
)

// ParseCurrency strips currency symbols, codes and thousand separators and
// parses the rest as a number. Blank input is 0 without an issue; anything
// unparseable coerces to 0 with an issue. Parenthesized amounts are negative.
func ParseCurrency(v entity.Value) (entity.Value, string) {
	if v.Kind == entity.KindNumber {
		return entity.NumberValue(v.Num), ""
	}
	raw := strings.TrimSpace(v.Text())
	if raw == "" {
		return entity.NumberValue(0), ""
	}

	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = raw[1 : len(raw)-1]
	}
	cleaned := strings.TrimSpace(currencyReplacer.Replace(raw))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return entity.NumberValue(0), "unparseable amount " + strconv.Quote(raw)
	}
	if neg {
		f = -f
	}
	return entity.NumberValue(f), ""
}

// dateLayouts are tried in order. DD/MM/YYYY comes first: the source files
// are Indian-locale registers where 03/04/2025 means 3 April.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// ParseDate normalizes locale dates to a date value rendered as ISO
// YYYY-MM-DD. Unparseable input is returned unchanged as a string together
// with an issue, rather than dropped.
func ParseDate(v entity.Value) (entity.Value, string) {
	if v.Kind == entity.KindDate {
		return v, ""
	}
	raw := strings.TrimSpace(v.Text())
	if raw == "" {
		return v, ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return entity.DateValue(t), ""
		}
	}
	return entity.StringValue(raw), "unparseable date " + strconv.Quote(raw)
}

// TrimText collapses surrounding whitespace on free-text fields.
func TrimText(v entity.Value) (entity.Value, string) {
	if v.Kind != entity.KindString {
		return v, ""
	}
	return entity.StringValue(strings.TrimSpace(v.Str)), ""
}
