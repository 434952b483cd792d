package storage

import (
	"strconv"
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

// Key is the constraint for record keys. K is ordered by its underlying
// int64 or string and knows which column type it can be stored in, how to
// extract itself from a Value and how to parse itself from command text.
// FromValue and ParseKey are called on the zero value.
type Key[K any] interface {
	~int64 | ~string
	AcceptsType(t ValueType) bool
	FromValue(v Value) (K, bool)
	ParseKey(s string) (K, error)
}

// IntKey keys tables by an Int column.
type IntKey int64

func (IntKey) AcceptsType(t ValueType) bool { return t == IntType }

func (IntKey) FromValue(v Value) (IntKey, bool) {
	n, ok := v.Int()
	return IntKey(n), ok
}

func (IntKey) ParseKey(s string) (IntKey, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dberr.ErrInvalidFieldValue
	}
	return IntKey(n), nil
}

// StringKey keys tables by a String column.
type StringKey string

func (StringKey) AcceptsType(t ValueType) bool { return t == StringType }

func (StringKey) FromValue(v Value) (StringKey, bool) {
	s, ok := v.Str()
	return StringKey(s), ok
}

func (StringKey) ParseKey(s string) (StringKey, error) {
	return StringKey(s), nil
}

// KeyKind selects which of the two key types a database uses.
type KeyKind int

const (
	IntKeyed KeyKind = iota
	StringKeyed
)

func (k KeyKind) String() string {
	if k == StringKeyed {
		return "string"
	}
	return "int"
}

// ParseKeyKind accepts "int" or "string" in any case.
func ParseKeyKind(s string) (KeyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "int64":
		return IntKeyed, nil
	case "string", "str", "text":
		return StringKeyed, nil
	}
	return 0, dberr.New(dberr.InvalidKeyType, s)
}
