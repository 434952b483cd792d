package storage

import (
	"maps"

	"github.com/google/btree"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

const btreeDegree = 16

type entry[K Key[K]] struct {
	key K
	rec Record
}

func lessEntry[K Key[K]](a, b entry[K]) bool { return a.key < b.key }

// Table stores records of one schema ordered by their key column.
type Table[K Key[K]] struct {
	Name      string
	schema    *Schema
	keyColumn string
	records   *btree.BTreeG[entry[K]]
}

func newTable[K Key[K]](name, keyColumn string, schema *Schema) *Table[K] {
	return &Table[K]{
		Name:      name,
		schema:    schema,
		keyColumn: keyColumn,
		records:   btree.NewG(btreeDegree, lessEntry[K]),
	}
}

// Schema returns the table schema.
func (t *Table[K]) Schema() *Schema { return t.schema }

// KeyColumn returns the name of the key column.
func (t *Table[K]) KeyColumn() string { return t.keyColumn }

// Len returns the number of records.
func (t *Table[K]) Len() int { return t.records.Len() }

// Insert adds a record. The value map must name exactly the schema columns
// with values of the declared types, and its key must not be present yet.
func (t *Table[K]) Insert(values Record) error {
	if !t.schema.matches(values) {
		return dberr.ErrKeysMismatch
	}
	for name, v := range values {
		if typ, _ := t.schema.TypeOf(name); v.Type() != typ {
			return dberr.New(dberr.InvalidFieldValue, name)
		}
	}
	var zero K
	key, ok := zero.FromValue(values[t.keyColumn])
	if !ok {
		return dberr.ErrKeysMismatch
	}
	if t.records.Has(entry[K]{key: key}) {
		return dberr.ErrRecordAlreadyExists
	}
	t.records.ReplaceOrInsert(entry[K]{key: key, rec: maps.Clone(values)})
	return nil
}

// Delete removes the record whose key parses from keyText.
func (t *Table[K]) Delete(keyText string) error {
	var zero K
	key, err := zero.ParseKey(keyText)
	if err != nil {
		return err
	}
	if _, ok := t.records.Delete(entry[K]{key: key}); !ok {
		return dberr.ErrKeyNotFound
	}
	return nil
}

// Select returns the requested columns, in the requested order, of every
// record accepted by filter, in ascending key order. A nil filter accepts
// every record. The first filter error aborts the whole selection.
func (t *Table[K]) Select(columns []string, filter Filter) ([][]Value, error) {
	for _, c := range columns {
		if !t.schema.Has(c) {
			return nil, dberr.New(dberr.InvalidFieldName, c)
		}
	}
	var (
		rows    [][]Value
		scanErr error
	)
	t.records.Ascend(func(e entry[K]) bool {
		if filter != nil {
			ok, err := filter.Match(e.rec)
			if err != nil {
				scanErr = err
				return false
			}
			if !ok {
				return true
			}
		}
		row := make([]Value, len(columns))
		for i, c := range columns {
			row[i] = e.rec[c]
		}
		rows = append(rows, row)
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return rows, nil
}
