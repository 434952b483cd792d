package engine

import (
	"context"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// CreateCmd is `CREATE <name> KEY <key_col> FIELDS <col>:<Type>, ...`.
type CreateCmd struct {
	Table     string
	KeyColumn string
	Schema    *storage.Schema
}

func parseCreate(rest string, _ *storage.AnyDatabase) (Command, error) {
	at := firstWordOutsideQuotes(rest, "KEY")
	if at < 0 {
		return nil, dberr.CommandFormat("CREATE", "Missing KEY")
	}
	name, afterKey := cutWord(rest, at, "KEY")
	at = firstWordOutsideQuotes(afterKey, "FIELDS")
	if at < 0 {
		return nil, dberr.CommandFormat("CREATE", "Missing FIELDS")
	}
	keyCol, fields := cutWord(afterKey, at, "FIELDS")
	if !isSingleWord(name) {
		return nil, dberr.CommandFormat("CREATE", "Expected a single table name")
	}
	if !isSingleWord(keyCol) {
		return nil, dberr.CommandFormat("CREATE", "Expected a single key column")
	}

	defs := SplitQuoted(fields, ',')
	if len(defs) == 0 {
		return nil, dberr.CommandFormat("CREATE", "No fields given")
	}
	cols := make([]storage.Column, 0, len(defs))
	for _, def := range defs {
		col, typ, ok := SplitOnce(def, ":")
		if !ok || col == "" {
			return nil, dberr.CommandFormat("CREATE", "Expected field definition as name:Type")
		}
		vt, err := storage.ParseValueType(typ)
		if err != nil {
			return nil, err
		}
		cols = append(cols, storage.Column{Name: col, Type: vt})
	}
	schema, err := storage.NewSchema(cols)
	if err != nil {
		return nil, err
	}
	return &CreateCmd{Table: name, KeyColumn: Unquote(keyCol), Schema: schema}, nil
}

func (c *CreateCmd) Execute(_ context.Context, env *Env) error {
	return env.DB.CreateTable(c.Table, c.KeyColumn, c.Schema)
}
