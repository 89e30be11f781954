package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ValueKind tags the concrete type held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindDate
)

// Value is a tagged union for one cell of a record: string, finite number,
// date, or null. Numeric values are always finite; constructors reject NaN
// and infinities so they can never reach totals downstream.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Date time.Time
}

func NullValue() Value { return Value{Kind: KindNull} }

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue builds a numeric value; NaN and infinities coerce to 0.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return Value{Kind: KindNumber, Num: f}
}

func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// IsEmpty reports whether the value carries no content (null or blank string).
func (v Value) IsEmpty() bool {
	return v.Kind == KindNull || (v.Kind == KindString && v.Str == "")
}

// Text renders the value as a display string.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Date.Format("2006-01-02")
	}
	return ""
}

// Number returns the numeric content of the value, or 0 when it has none.
func (v Value) Number() float64 {
	if v.Kind == KindNumber {
		return v.Num
	}
	return 0
}

// MarshalJSON encodes the union as its natural JSON shape: strings as
// strings, numbers as numbers, dates as ISO date strings, null as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindDate:
		return json.Marshal(v.Date.Format("2006-01-02"))
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes strings, numbers and null. Date-shaped strings stay
// strings; the normalizer owns date coercion.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		*v = StringValue(strconv.FormatBool(t))
	default:
		return fmt.Errorf("unsupported value type %T", raw)
	}
	return nil
}

// Record maps column names to cell values. One Record per spreadsheet row,
// both before (raw) and after (normalized) schema mapping.
type Record map[string]Value

// PopulatedColumns counts columns holding non-empty values.
func (r Record) PopulatedColumns() int {
	n := 0
	for _, v := range r {
		if !v.IsEmpty() {
			n++
		}
	}
	return n
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
