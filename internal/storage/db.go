// Package storage provides the in-memory data structures for tinyrel.
//
// What: typed values, schemas, and generic tables keyed by one of two key
// types, grouped into a Database. AnyDatabase and AnyTableRef hide the key
// type from the rest of the system behind a closed two-way switch. The package
// also owns the append-only command log, the destinations it can be saved to
// and read from, and a cron-driven checkpoint scheduler.
// How: records live in a generic B-tree ordered by key; every operation
// validates fully before its single mutating step, so a failed call leaves the
// table untouched.
package storage

import (
	"sort"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

// Database maps table names to tables sharing one key type.
type Database[K Key[K]] struct {
	tables map[string]*Table[K]
}

// NewDatabase returns an empty database.
func NewDatabase[K Key[K]]() *Database[K] {
	return &Database[K]{tables: map[string]*Table[K]{}}
}

// CreateTable adds an empty table. keyColumn must be a schema column whose
// type K accepts, and name must be free.
func (db *Database[K]) CreateTable(name, keyColumn string, schema *Schema) error {
	keyType, ok := schema.TypeOf(keyColumn)
	if !ok {
		return dberr.CommandFormat("CREATE", "Key was not in fields")
	}
	var zero K
	if !zero.AcceptsType(keyType) {
		return dberr.ErrInvalidKeyType
	}
	if _, exists := db.tables[name]; exists {
		return dberr.New(dberr.TableAlreadyExists, name)
	}
	db.tables[name] = newTable[K](name, keyColumn, schema)
	return nil
}

// Table returns a table by name.
func (db *Database[K]) Table(name string) (*Table[K], error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, dberr.New(dberr.TableNotFound, name)
	}
	return t, nil
}

// TableNames returns the table names sorted.
func (db *Database[K]) TableNames() []string {
	names := make([]string, 0, len(db.tables))
	for n := range db.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AnyDatabase holds exactly one Database, keyed either by IntKey or by
// StringKey. The kind is fixed at construction.
type AnyDatabase struct {
	kind KeyKind
	ints *Database[IntKey]
	strs *Database[StringKey]
}

// NewAnyDatabase creates an empty database of the given key kind.
func NewAnyDatabase(kind KeyKind) *AnyDatabase {
	switch kind {
	case StringKeyed:
		return &AnyDatabase{kind: kind, strs: NewDatabase[StringKey]()}
	default:
		return &AnyDatabase{kind: IntKeyed, ints: NewDatabase[IntKey]()}
	}
}

// Kind reports the key kind of the database.
func (db *AnyDatabase) Kind() KeyKind { return db.kind }

// CreateTable forwards to the concrete database.
func (db *AnyDatabase) CreateTable(name, keyColumn string, schema *Schema) error {
	switch db.kind {
	case StringKeyed:
		return db.strs.CreateTable(name, keyColumn, schema)
	default:
		return db.ints.CreateTable(name, keyColumn, schema)
	}
}

// Table resolves a table by name into a per-command handle.
func (db *AnyDatabase) Table(name string) (AnyTableRef, error) {
	switch db.kind {
	case StringKeyed:
		t, err := db.strs.Table(name)
		if err != nil {
			return AnyTableRef{}, err
		}
		return AnyTableRef{strs: t}, nil
	default:
		t, err := db.ints.Table(name)
		if err != nil {
			return AnyTableRef{}, err
		}
		return AnyTableRef{ints: t}, nil
	}
}

// TableNames returns the table names sorted.
func (db *AnyDatabase) TableNames() []string {
	switch db.kind {
	case StringKeyed:
		return db.strs.TableNames()
	default:
		return db.ints.TableNames()
	}
}

// AnyTableRef points at one table of an AnyDatabase. Exactly one of the two
// fields is set.
type AnyTableRef struct {
	ints *Table[IntKey]
	strs *Table[StringKey]
}

// Name returns the table name.
func (r AnyTableRef) Name() string {
	if r.strs != nil {
		return r.strs.Name
	}
	return r.ints.Name
}

// Schema returns the table schema.
func (r AnyTableRef) Schema() *Schema {
	if r.strs != nil {
		return r.strs.Schema()
	}
	return r.ints.Schema()
}

// KeyColumn returns the key column name.
func (r AnyTableRef) KeyColumn() string {
	if r.strs != nil {
		return r.strs.KeyColumn()
	}
	return r.ints.KeyColumn()
}

// Len returns the record count.
func (r AnyTableRef) Len() int {
	if r.strs != nil {
		return r.strs.Len()
	}
	return r.ints.Len()
}

// Insert forwards to Table.Insert.
func (r AnyTableRef) Insert(values Record) error {
	if r.strs != nil {
		return r.strs.Insert(values)
	}
	return r.ints.Insert(values)
}

// Delete forwards to Table.Delete.
func (r AnyTableRef) Delete(keyText string) error {
	if r.strs != nil {
		return r.strs.Delete(keyText)
	}
	return r.ints.Delete(keyText)
}

// Select forwards to Table.Select.
func (r AnyTableRef) Select(columns []string, filter Filter) ([][]Value, error) {
	if r.strs != nil {
		return r.strs.Select(columns, filter)
	}
	return r.ints.Select(columns, filter)
}
