package engine

import (
	"context"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// InsertCmd is `INSERT <col>=<value>, ... INTO <table>`.
type InsertCmd struct {
	table  storage.AnyTableRef
	Values storage.Record
}

func parseInsert(rest string, db *storage.AnyDatabase) (Command, error) {
	at := lastWordOutsideQuotes(rest, "INTO")
	if at < 0 {
		return nil, dberr.CommandFormat("INSERT", "Missing INTO")
	}
	assignments, name := cutWord(rest, at, "INTO")
	if !isSingleWord(name) {
		return nil, dberr.CommandFormat("INSERT", "Expected a single table name")
	}
	ref, err := db.Table(name)
	if err != nil {
		return nil, err
	}
	schema := ref.Schema()

	parts := SplitQuoted(assignments, ',')
	if len(parts) == 0 {
		return nil, dberr.CommandFormat("INSERT", "No values given")
	}
	values := make(storage.Record, len(parts))
	for _, part := range parts {
		col, raw, ok := SplitOnce(part, "=")
		if !ok || col == "" {
			return nil, dberr.CommandFormat("INSERT", "Expected assignment as column=value")
		}
		typ, known := schema.TypeOf(col)
		if !known {
			return nil, dberr.New(dberr.InvalidFieldName, col)
		}
		if _, dup := values[col]; dup {
			return nil, dberr.New(dberr.DuplicateColumnName, col)
		}
		v, err := typ.Parse(raw)
		if err != nil {
			return nil, err
		}
		values[col] = v
	}
	return &InsertCmd{table: ref, Values: values}, nil
}

func (c *InsertCmd) Execute(_ context.Context, _ *Env) error {
	return c.table.Insert(c.Values)
}
