package storage

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

// ValueType is the schema-level type tag of a column.
type ValueType int

const (
	BoolType ValueType = iota
	IntType
	FloatType
	StringType
)

var valueTypeNames = map[ValueType]string{
	BoolType:   "Bool",
	IntType:    "Int",
	FloatType:  "Float",
	StringType: "String",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// ParseValueType maps a field type token (Bool, Int, Float, String) to its
// ValueType. Matching is case-sensitive.
func ParseValueType(s string) (ValueType, error) {
	for t, name := range valueTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, dberr.New(dberr.InvalidFieldType, s)
}

// Parse converts raw command text into a Value of this type.
func (t ValueType) Parse(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case BoolType:
		if b, ok := ParseBool(s); ok {
			return BoolValue(b), nil
		}
	case IntType:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(n), nil
		}
	case FloatType:
		if f, ok := ParseFloat(s); ok {
			return FloatValue(f), nil
		}
	case StringType:
		return StringValue(s), nil
	}
	return Value{}, dberr.ErrInvalidFieldValue
}

// ParseBool matches true or false, ignoring ASCII case only.
func ParseBool(s string) (bool, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false, false
		}
	}
	switch cases.Fold().String(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ParseFloat parses a decimal float. Digit separators and hex mantissas,
// which strconv accepts, are rejected.
func ParseFloat(s string) (float64, bool) {
	if strings.ContainsRune(s, '_') {
		return 0, false
	}
	if u := strings.TrimLeft(s, "+-"); len(u) > 1 && u[0] == '0' && (u[1] == 'x' || u[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Value is a tagged runtime value. The zero Value is Bool false.
type Value struct {
	typ ValueType
	b   bool
	i   int64
	f   float64
	s   string
}

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{typ: BoolType, b: b} }

// IntValue wraps an int64.
func IntValue(i int64) Value { return Value{typ: IntType, i: i} }

// FloatValue wraps a float64.
func FloatValue(f float64) Value { return Value{typ: FloatType, f: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{typ: StringType, s: s} }

// Type returns the variant tag.
func (v Value) Type() ValueType { return v.typ }

// IsNumeric reports whether v is an Int or a Float.
func (v Value) IsNumeric() bool { return v.typ == IntType || v.typ == FloatType }

func (v Value) Bool() (bool, bool)     { return v.b, v.typ == BoolType }
func (v Value) Int() (int64, bool)     { return v.i, v.typ == IntType }
func (v Value) Str() (string, bool)    { return v.s, v.typ == StringType }

// AsFloat returns the numeric value widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.typ {
	case IntType:
		return float64(v.i), true
	case FloatType:
		return v.f, true
	}
	return 0, false
}

// Any returns the payload as a plain Go value (bool, int64, float64, string).
func (v Value) Any() any {
	switch v.typ {
	case IntType:
		return v.i
	case FloatType:
		return v.f
	case StringType:
		return v.s
	default:
		return v.b
	}
}

// String renders the value the way SELECT prints it. Parsing the result
// with the value's own type yields an equal value.
func (v Value) String() string {
	switch v.typ {
	case IntType:
		return strconv.FormatInt(v.i, 10)
	case FloatType:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return strconv.FormatFloat(v.f, 'g', -1, 64)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case StringType:
		return v.s
	default:
		return strconv.FormatBool(v.b)
	}
}

// Equal compares two values. Int and Float compare numerically; any other
// pair of different variants is unequal.
func (v Value) Equal(o Value) bool {
	switch {
	case v.typ == BoolType && o.typ == BoolType:
		return v.b == o.b
	case v.typ == StringType && o.typ == StringType:
		return v.s == o.s
	case v.typ == IntType && o.typ == IntType:
		return v.i == o.i
	case v.IsNumeric() && o.IsNumeric():
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	return false
}

// Greater reports whether v > o. Numbers compare numerically and strings
// lexicographically; every other pairing fails with CannotCompareValue.
func (v Value) Greater(o Value) (bool, error) {
	switch {
	case v.typ == IntType && o.typ == IntType:
		return v.i > o.i, nil
	case v.IsNumeric() && o.IsNumeric():
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a > b, nil
	case v.typ == StringType && o.typ == StringType:
		return v.s > o.s, nil
	}
	return false, dberr.ErrCannotCompareValue
}
