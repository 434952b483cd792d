// Package tinyrel provides an embeddable, in-memory typed relational store
// driven by a small textual command language.
//
// A database holds named tables. Every table has a typed schema and one key
// column; records are kept in ascending key order. All keys of one database
// share a type chosen when it is opened: Int or String.
//
// # Commands
//
//	CREATE accounts KEY id FIELDS id:Int, name:String, balance:Float
//	INSERT id=1, name="Alice", balance=10.5 INTO accounts
//	SELECT * FROM accounts WHERE balance > 5 AND name != "Bob"
//	DELETE 1 FROM accounts
//	SAVE_AS backup.txt
//	READ_FROM backup.txt
//
// Every successful command is appended to the session's command log.
// SAVE_AS writes that log, one command per line, and READ_FROM replays such
// a file; the replayed commands are logged again, followed by the READ_FROM.
// Paths may be local, file://, s3://bucket/key or, for READ_FROM only,
// http(s) URLs.
//
// # Basic Usage
//
//	sess, _ := tinyrel.Open("int", os.Stdout)
//	ctx := context.Background()
//	sess.Execute(ctx, `CREATE t KEY id FIELDS id:Int, name:String`)
//	sess.Execute(ctx, `INSERT id=1, name="a" INTO t`)
//	rs, _ := sess.Execute(ctx, `SELECT name FROM t WHERE id = 1`)
//
// # Errors
//
// Errors belong to a closed taxonomy. Match them with errors.Is against the
// Err* sentinels, or inspect the innermost code with CodeOf.
package tinyrel

import (
	"io"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/engine"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// ============================================================================
// Core Types
// ============================================================================

// Value is a tagged Bool, Int, Float or String value.
type Value = storage.Value

// ValueType names one of the four value variants.
type ValueType = storage.ValueType

// Record maps column names to values.
type Record = storage.Record

// Schema is the ordered column list of a table.
type Schema = storage.Schema

// KeyKind selects the key type of a database.
type KeyKind = storage.KeyKind

// Database is a database of either key kind.
type Database = storage.AnyDatabase

// CommandLog is the ordered list of successful commands.
type CommandLog = storage.CommandLog

// Session bundles a database with its command log.
type Session = engine.Session

// ResultSet holds the rows of a SELECT.
type ResultSet = engine.ResultSet

// Error is the error type of every failing command.
type Error = dberr.Error

const (
	IntKeyed    = storage.IntKeyed
	StringKeyed = storage.StringKeyed
)

// ============================================================================
// Errors
// ============================================================================

var (
	ErrCommandParse        = dberr.ErrCommandParse
	ErrCommandExecute      = dberr.ErrCommandExecute
	ErrTableNotFound       = dberr.ErrTableNotFound
	ErrRecordAlreadyExists = dberr.ErrRecordAlreadyExists
	ErrKeyNotFound         = dberr.ErrKeyNotFound
)

// CodeOf returns the innermost taxonomy code of err, or 0.
func CodeOf(err error) dberr.Code { return dberr.CodeOf(err) }

// ============================================================================
// Constructors
// ============================================================================

// Open starts a session over an empty database whose keys are "int" or
// "string". SELECT output is written to out when it is not nil.
func Open(keyType string, out io.Writer) (*Session, error) {
	kind, err := storage.ParseKeyKind(keyType)
	if err != nil {
		return nil, err
	}
	return engine.NewSession(kind, out), nil
}

// NewDatabase returns an empty database of the given kind.
func NewDatabase(kind KeyKind) *Database { return storage.NewAnyDatabase(kind) }

// NewCommandLog returns an empty command log.
func NewCommandLog() *CommandLog { return storage.NewCommandLog() }

// CreateAndExecute parses and runs one command against db, appending it to
// log on success. SELECT output goes to out.
var CreateAndExecute = engine.CreateAndExecute
