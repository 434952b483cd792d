package engine

import (
	"context"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// DeleteCmd is `DELETE <key> FROM <table>`.
type DeleteCmd struct {
	table storage.AnyTableRef
	Key   string
}

func parseDelete(rest string, db *storage.AnyDatabase) (Command, error) {
	at := lastWordOutsideQuotes(rest, "FROM")
	if at < 0 {
		return nil, dberr.CommandFormat("DELETE", "Missing FROM")
	}
	key, name := cutWord(rest, at, "FROM")
	if key == "" {
		return nil, dberr.CommandFormat("DELETE", "Missing key")
	}
	if !isSingleWord(name) {
		return nil, dberr.CommandFormat("DELETE", "Expected a single table name")
	}
	ref, err := db.Table(name)
	if err != nil {
		return nil, err
	}
	return &DeleteCmd{table: ref, Key: Unquote(key)}, nil
}

func (c *DeleteCmd) Execute(_ context.Context, _ *Env) error {
	return c.table.Delete(c.Key)
}
