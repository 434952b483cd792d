package engine

import (
	"context"
	"strings"
	"unicode"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// Command is a parsed command ready to run.
type Command interface {
	Execute(ctx context.Context, env *Env) error
}

type parseFunc func(rest string, db *storage.AnyDatabase) (Command, error)

var parsers = map[string]parseFunc{
	"CREATE":    parseCreate,
	"INSERT":    parseInsert,
	"DELETE":    parseDelete,
	"SELECT":    parseSelect,
	"SAVE_AS":   parseSaveAs,
	"READ_FROM": parseReadFrom,
}

// Keywords lists the command keywords in the order the help text shows them.
var Keywords = []string{"CREATE", "INSERT", "DELETE", "SELECT", "SAVE_AS", "READ_FROM"}

// Parse splits off the leading keyword of text and parses the rest with the
// matching command parser. Keywords are case-sensitive. A command must fit
// on one line, since the command log stores one command per line.
func Parse(text string, db *storage.AnyDatabase) (Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dberr.ErrInvalidCommandFormat
	}
	keyword, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		keyword, rest = text[:i], strings.TrimSpace(text[i:])
	}
	if strings.ContainsAny(text, "\r\n") {
		return nil, dberr.CommandFormat(keyword, "Line breaks are not allowed")
	}
	parse, ok := parsers[keyword]
	if !ok {
		return nil, dberr.CommandFormat(keyword, "Unknown command")
	}
	return parse(rest, db)
}

func isSingleWord(s string) bool {
	return s != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
}
