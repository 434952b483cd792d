// Package dberr defines the closed error taxonomy shared by every tinyrel layer.
//
// What: a single Error type carrying a Code from a fixed set, the Category the
// code belongs to, an optional detail string and an optional cause.
// How: sentinel values (ErrKeysMismatch, ...) compare by code through
// errors.Is, so callers can match an error no matter how many command
// wrappers sit on top of it. Parse and execute failures are wrapped exactly
// once by the command layer.
package dberr

import (
	"errors"
	"fmt"
)

// Code identifies one member of the error taxonomy.
type Code int

const (
	InvalidKeyType Code = iota + 1
	InvalidCommandFormat
	InvalidFieldType
	InvalidFieldName
	InvalidFieldValue
	DuplicateColumnName
	TableNotFound
	TableAlreadyExists
	KeysMismatch
	RecordAlreadyExists
	KeyNotFound
	IoError
	CommandParseError
	CommandExecuteError
	InvalidWhereClauseFormat
	WronglyParsedClause
	CannotCompareValue
	InvalidLogicalOperation
	InvalidMathOperation
	DivisionByZero
)

var codeNames = map[Code]string{
	InvalidKeyType:           "InvalidKeyType",
	InvalidCommandFormat:     "InvalidCommandFormat",
	InvalidFieldType:         "InvalidFieldType",
	InvalidFieldName:         "InvalidFieldName",
	InvalidFieldValue:        "InvalidFieldValue",
	DuplicateColumnName:      "DuplicateColumnName",
	TableNotFound:            "TableNotFound",
	TableAlreadyExists:       "TableAlreadyExists",
	KeysMismatch:             "KeysMismatch",
	RecordAlreadyExists:      "RecordAlreadyExists",
	KeyNotFound:              "KeyNotFound",
	IoError:                  "IoError",
	CommandParseError:        "CommandParseError",
	CommandExecuteError:      "CommandExecuteError",
	InvalidWhereClauseFormat: "InvalidWhereClauseFormat",
	WronglyParsedClause:      "WronglyParsedClause",
	CannotCompareValue:       "CannotCompareValue",
	InvalidLogicalOperation:  "InvalidLogicalOperation",
	InvalidMathOperation:     "InvalidMathOperation",
	DivisionByZero:           "DivisionByZero",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "Unknown"
}

// Category groups codes by what went wrong.
type Category int

const (
	CategoryFormat Category = iota
	CategorySchema
	CategoryExistence
	CategoryEvaluation
	CategoryIO
	CategoryWrapper
)

func (c Category) String() string {
	switch c {
	case CategoryFormat:
		return "format"
	case CategorySchema:
		return "schema"
	case CategoryExistence:
		return "existence"
	case CategoryEvaluation:
		return "evaluation"
	case CategoryIO:
		return "io"
	case CategoryWrapper:
		return "wrapper"
	default:
		return "unknown"
	}
}

// Category reports the taxonomy group of the code.
func (c Code) Category() Category {
	switch c {
	case InvalidCommandFormat, InvalidWhereClauseFormat, WronglyParsedClause:
		return CategoryFormat
	case InvalidKeyType, InvalidFieldType, InvalidFieldName, InvalidFieldValue,
		DuplicateColumnName, KeysMismatch:
		return CategorySchema
	case TableNotFound, TableAlreadyExists, RecordAlreadyExists, KeyNotFound:
		return CategoryExistence
	case CannotCompareValue, InvalidLogicalOperation, InvalidMathOperation, DivisionByZero:
		return CategoryEvaluation
	case IoError:
		return CategoryIO
	default:
		return CategoryWrapper
	}
}

// Error is the single concrete error type of the taxonomy.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	switch e.Code {
	case InvalidKeyType:
		return "Given key is not valid in this type of database"
	case InvalidCommandFormat:
		if e.Detail == "" {
			return "Invalid command format"
		}
		return "Invalid command format for command " + e.Detail
	case InvalidFieldType:
		return "Invalid field type specified"
	case InvalidFieldName:
		return withDetail("Invalid field name specified", e.Detail)
	case InvalidFieldValue:
		return "Invalid field value for the specified type"
	case DuplicateColumnName:
		return withDetail("Column name provided more than once", e.Detail)
	case TableNotFound:
		return fmt.Sprintf("Table '%s' not found in database", e.Detail)
	case TableAlreadyExists:
		return fmt.Sprintf("Table with name '%s' already exists in database", e.Detail)
	case KeysMismatch:
		return "Keys do not match the table structure"
	case RecordAlreadyExists:
		return "Record with the given key already exists"
	case KeyNotFound:
		return "Specified key not found in table"
	case IoError:
		return fmt.Sprintf("IO Error occurred: %v", e.Cause)
	case CommandParseError:
		return fmt.Sprintf("Error parsing command: %v", e.Cause)
	case CommandExecuteError:
		return fmt.Sprintf("Error executing command: %v", e.Cause)
	case InvalidWhereClauseFormat:
		return "Error parsing where clause: " + e.Detail
	case WronglyParsedClause:
		return "Wrongly parsed clause: " + e.Detail
	case CannotCompareValue:
		return "Cannot determine which value is bigger for bools or strings with numbers"
	case InvalidLogicalOperation:
		return "Cannot perform AND/OR operation on non-boolean values"
	case InvalidMathOperation:
		return "Cannot perform mathematical operation on non-numeric values"
	case DivisionByZero:
		return "Cannot divide by zero"
	default:
		return "unknown database error"
	}
}

func withDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrInvalidKeyType           = &Error{Code: InvalidKeyType}
	ErrInvalidCommandFormat     = &Error{Code: InvalidCommandFormat}
	ErrInvalidFieldType         = &Error{Code: InvalidFieldType}
	ErrInvalidFieldName         = &Error{Code: InvalidFieldName}
	ErrInvalidFieldValue        = &Error{Code: InvalidFieldValue}
	ErrDuplicateColumnName      = &Error{Code: DuplicateColumnName}
	ErrTableNotFound            = &Error{Code: TableNotFound}
	ErrTableAlreadyExists       = &Error{Code: TableAlreadyExists}
	ErrKeysMismatch             = &Error{Code: KeysMismatch}
	ErrRecordAlreadyExists      = &Error{Code: RecordAlreadyExists}
	ErrKeyNotFound              = &Error{Code: KeyNotFound}
	ErrIo                       = &Error{Code: IoError}
	ErrCommandParse             = &Error{Code: CommandParseError}
	ErrCommandExecute           = &Error{Code: CommandExecuteError}
	ErrInvalidWhereClauseFormat = &Error{Code: InvalidWhereClauseFormat}
	ErrWronglyParsedClause      = &Error{Code: WronglyParsedClause}
	ErrCannotCompareValue       = &Error{Code: CannotCompareValue}
	ErrInvalidLogicalOperation  = &Error{Code: InvalidLogicalOperation}
	ErrInvalidMathOperation     = &Error{Code: InvalidMathOperation}
	ErrDivisionByZero           = &Error{Code: DivisionByZero}
)

// New returns an error with the given code and detail.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Newf is New with a formatted detail.
func Newf(code Code, format string, a ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, a...)}
}

// CommandFormat reports a malformed command; name identifies the command kind.
func CommandFormat(name, reason string) *Error {
	d := name
	if reason != "" {
		d = name + ". " + reason
	}
	return &Error{Code: InvalidCommandFormat, Detail: d}
}

// WhereFormat reports a malformed WHERE clause.
func WhereFormat(format string, a ...any) *Error {
	return Newf(InvalidWhereClauseFormat, format, a...)
}

// IO wraps an I/O failure. A nil cause yields nil.
func IO(cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) && e.Code == IoError {
		return e
	}
	return &Error{Code: IoError, Cause: cause}
}

// Parse wraps a failure of the parse phase. A nil cause yields nil.
func Parse(cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: CommandParseError, Cause: cause}
}

// Execute wraps a failure of the execute phase. A nil cause yields nil.
func Execute(cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: CommandExecuteError, Cause: cause}
}

// Root returns the innermost *Error in err's chain, skipping the command
// wrappers, or nil when err carries none.
func Root(err error) *Error {
	var last *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			last = e
			if e.Code != CommandParseError && e.Code != CommandExecuteError {
				return e
			}
		}
		err = errors.Unwrap(err)
	}
	return last
}

// CodeOf returns the code of Root(err), or 0 when err is not a taxonomy error.
func CodeOf(err error) Code {
	if e := Root(err); e != nil {
		return e.Code
	}
	return 0
}
