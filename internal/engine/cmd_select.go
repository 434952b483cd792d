package engine

import (
	"context"
	"io"
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// ResultSet holds the column order and the rows returned by a SELECT.
type ResultSet struct {
	Cols []string
	Rows [][]storage.Value
}

// WriteTSV writes a tab-separated header followed by one line per row.
func (rs *ResultSet) WriteTSV(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(rs.Cols, "\t"))
	sb.WriteByte('\n')
	for _, row := range rs.Rows {
		for i, v := range row {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// SelectCmd is `SELECT <cols|*> FROM <table> [WHERE <expr>]`.
type SelectCmd struct {
	table   storage.AnyTableRef
	Columns []string
	Where   *WhereClause
}

func parseSelect(rest string, db *storage.AnyDatabase) (Command, error) {
	at := firstWordOutsideQuotes(rest, "FROM")
	if at < 0 {
		return nil, dberr.CommandFormat("SELECT", "Missing FROM")
	}
	colText, tail := cutWord(rest, at, "FROM")
	if colText == "" {
		return nil, dberr.CommandFormat("SELECT", "No columns given")
	}

	name, whereText, hasWhere := tail, "", false
	if at := firstWordOutsideQuotes(tail, "WHERE"); at >= 0 {
		name, whereText = cutWord(tail, at, "WHERE")
		hasWhere = true
	}
	if !isSingleWord(name) {
		return nil, dberr.CommandFormat("SELECT", "Expected a single table name")
	}
	ref, err := db.Table(name)
	if err != nil {
		return nil, err
	}

	var cols []string
	if colText == "*" {
		cols = ref.Schema().Names()
	} else {
		for _, c := range SplitQuoted(colText, ',') {
			cols = append(cols, Unquote(c))
		}
	}

	cmd := &SelectCmd{table: ref, Columns: cols}
	if hasWhere {
		if cmd.Where, err = ParseWhere(whereText, ref.Schema()); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

func (c *SelectCmd) Execute(_ context.Context, env *Env) error {
	var filter storage.Filter
	if c.Where != nil {
		filter = c.Where
	}
	rows, err := c.table.Select(c.Columns, filter)
	if err != nil {
		return err
	}
	rs := &ResultSet{Cols: c.Columns, Rows: rows}
	env.result = rs
	if env.Out == nil {
		return nil
	}
	return dberr.IO(rs.WriteTSV(env.Out))
}
