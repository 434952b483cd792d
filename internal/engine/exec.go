package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// Env is what a command runs against.
type Env struct {
	DB     *storage.AnyDatabase
	Log    *storage.CommandLog
	Out    io.Writer // SELECT output; nil discards it
	Remote storage.RemoteConfig
	Logger *slog.Logger

	depth  int
	result *ResultSet
}

// run is the parse, execute, log pipeline for one command. A READ_FROM is
// logged after the commands it replayed.
func (env *Env) run(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	cmd, err := Parse(text, env.DB)
	if err != nil {
		env.logger().Debug("command rejected", "cmd", text, "err", err)
		return dberr.Parse(err)
	}
	if err := cmd.Execute(ctx, env); err != nil {
		env.logger().Debug("command failed", "cmd", text, "err", err)
		return dberr.Execute(err)
	}
	env.Log.Append(text)
	env.logger().Debug("command executed", "cmd", text, "depth", env.depth)
	return nil
}

func (env *Env) logger() *slog.Logger {
	if env.Logger == nil {
		return discardLogger
	}
	return env.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

// CreateAndExecute parses and executes one command against db and appends it
// to log on success. SELECT output goes to out.
func CreateAndExecute(ctx context.Context, text string, db *storage.AnyDatabase, log *storage.CommandLog, out io.Writer) error {
	env := &Env{DB: db, Log: log, Out: out}
	return env.run(ctx, text)
}

// Session bundles one database with its command log. It is not safe for
// concurrent use.
type Session struct {
	ID     uuid.UUID
	DB     *storage.AnyDatabase
	Log    *storage.CommandLog
	Out    io.Writer
	Remote storage.RemoteConfig
	Logger *slog.Logger
}

// NewSession creates a session over an empty database of the given kind.
func NewSession(kind storage.KeyKind, out io.Writer) *Session {
	return &Session{
		ID:  uuid.New(),
		DB:  storage.NewAnyDatabase(kind),
		Log: storage.NewCommandLog(),
		Out: out,
	}
}

// Execute runs one command. It returns the rows of the last SELECT the
// command ran, or nil.
func (s *Session) Execute(ctx context.Context, text string) (*ResultSet, error) {
	logger := s.Logger
	if logger != nil {
		logger = logger.With("session", s.ID.String())
	}
	env := &Env{DB: s.DB, Log: s.Log, Out: s.Out, Remote: s.Remote, Logger: logger}
	if err := env.run(ctx, text); err != nil {
		return nil, err
	}
	return env.result, nil
}

// Checkpoint saves the command log to dest.
func (s *Session) Checkpoint(ctx context.Context, dest string) error {
	return storage.SaveLog(ctx, s.Log, dest, s.Remote)
}
