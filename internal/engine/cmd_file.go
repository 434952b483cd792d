package engine

import (
	"context"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// maxReadDepth bounds READ_FROM files that read further files.
const maxReadDepth = 16

// SaveAsCmd is `SAVE_AS <path>`. The path may be local, file://, s3:// or
// (for reading only) http(s)://.
type SaveAsCmd struct {
	Path string
}

func parseSaveAs(rest string, _ *storage.AnyDatabase) (Command, error) {
	p := Unquote(rest)
	if p == "" {
		return nil, dberr.CommandFormat("SAVE_AS", "Missing path")
	}
	return &SaveAsCmd{Path: p}, nil
}

// Execute writes the log as it stood before this command.
func (c *SaveAsCmd) Execute(ctx context.Context, env *Env) error {
	return storage.SaveLog(ctx, env.Log, c.Path, env.Remote)
}

// ReadFromCmd is `READ_FROM <path>`.
type ReadFromCmd struct {
	Path string
}

func parseReadFrom(rest string, _ *storage.AnyDatabase) (Command, error) {
	p := Unquote(rest)
	if p == "" {
		return nil, dberr.CommandFormat("READ_FROM", "Missing path")
	}
	return &ReadFromCmd{Path: p}, nil
}

// Execute runs every line of the file through the full pipeline in order and
// stops at the first failure. Lines that ran before it stay committed.
func (c *ReadFromCmd) Execute(ctx context.Context, env *Env) error {
	if env.depth >= maxReadDepth {
		return dberr.CommandFormat("READ_FROM", "Files nested too deeply")
	}
	rc, err := storage.OpenLog(ctx, c.Path, env.Remote)
	if err != nil {
		return err
	}
	lines, err := storage.ReadCommands(rc)
	rc.Close()
	if err != nil {
		return dberr.IO(err)
	}

	env.depth++
	defer func() { env.depth-- }()
	for _, line := range lines {
		if err := env.run(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
