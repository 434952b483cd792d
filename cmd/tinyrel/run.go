package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyrel/internal/exporter"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a command file line by line, stopping at the first failure",
		Long: `Execute a command file line by line. The file may be a local path, a
file:// URL, an s3://bucket/key object or an http(s) URL. Blank lines are
skipped; the first failing command aborts the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.newSession()
			if err != nil {
				return err
			}
			format, err := exporter.ParseFormat(a.cfg.Format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rc, err := storage.OpenLog(ctx, args[0], sess.Remote)
			if err != nil {
				return err
			}
			lines, err := storage.ReadCommands(rc)
			rc.Close()
			if err != nil {
				return err
			}
			for i, line := range lines {
				if err := execLine(ctx, sess, line, cmd.OutOrStdout(), format); err != nil {
					return fmt.Errorf("command %d (%s): %w", i+1, line, err)
				}
			}
			a.logger.Debug("script finished", "file", args[0], "commands", len(lines))
			return nil
		},
	}
}
