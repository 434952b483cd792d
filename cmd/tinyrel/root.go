package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyrel/internal/config"
	"github.com/SimonWaldherr/tinyrel/internal/engine"
	"github.com/SimonWaldherr/tinyrel/internal/exporter"
)

// app is the state shared by all subcommands once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tinyrel",
		Short: "tinyrel - an in-memory typed relational store",
		Long: `tinyrel stores typed records in key-ordered tables and is driven by six
commands: CREATE, INSERT, DELETE, SELECT, SAVE_AS and READ_FROM.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./tinyrel.yaml)")
	pf.String("key", "", "key type of the database: int or string")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.String("format", config.DefaultFormat, "SELECT output format: tsv, table, csv, json, xml")
	pf.String("history-file", "", "REPL history file")

	_ = root.RegisterFlagCompletionFunc("key", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"int", "string"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"tsv", "table", "csv", "json", "xml"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(newReplCmd(a), newRunCmd(a), newServeCmd(a), newTokenCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// newSession opens an empty database of the configured key type. SELECT
// output is rendered by the caller, so the session writes nothing itself.
func (a *app) newSession() (*engine.Session, error) {
	kind, err := a.cfg.KeyKind()
	if err != nil {
		return nil, err
	}
	sess := engine.NewSession(kind, nil)
	sess.Remote = a.cfg.Remote()
	sess.Logger = a.logger
	return sess, nil
}

// execLine runs one command and prints its result set, if any, in format.
func execLine(ctx context.Context, sess *engine.Session, line string, w io.Writer, format exporter.Format) error {
	rs, err := sess.Execute(ctx, line)
	if err != nil {
		return err
	}
	if rs != nil {
		if err := exporter.Render(w, rs, format, exporter.Options{PrettyJSON: true}); err != nil {
			return fmt.Errorf("render result: %w", err)
		}
	}
	return nil
}
