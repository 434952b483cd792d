package storage

import (
	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

// Column holds a column name and its type.
type Column struct {
	Name string
	Type ValueType
}

// Schema is an ordered set of columns with name lookup. Column order is the
// declaration order of CREATE and the order SELECT * uses.
type Schema struct {
	cols   []Column
	colPos map[string]int
}

// NewSchema builds a schema; a repeated column name fails with
// DuplicateColumnName.
func NewSchema(cols []Column) (*Schema, error) {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := pos[c.Name]; dup {
			return nil, dberr.New(dberr.DuplicateColumnName, c.Name)
		}
		pos[c.Name] = i
	}
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return &Schema{cols: cp, colPos: pos}, nil
}

// Has reports whether name is a column of the schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.colPos[name]
	return ok
}

// TypeOf returns the type of the named column.
func (s *Schema) TypeOf(name string) (ValueType, bool) {
	i, ok := s.colPos[name]
	if !ok {
		return 0, false
	}
	return s.cols[i].Type, true
}

// Columns returns a copy of the columns in declaration order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Names returns the column names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Len is the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// matches reports whether rec has exactly the schema's columns.
func (s *Schema) matches(rec Record) bool {
	if len(rec) != len(s.cols) {
		return false
	}
	for name := range rec {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// Record maps column names to values.
type Record map[string]Value

// Get returns the value stored under column.
func (r Record) Get(column string) (Value, bool) {
	v, ok := r[column]
	return v, ok
}

// Filter decides whether a record takes part in a SELECT.
type Filter interface {
	Match(rec Record) (bool, error)
}
