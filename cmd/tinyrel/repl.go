package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SimonWaldherr/tinyrel/internal/engine"
	"github.com/SimonWaldherr/tinyrel/internal/exporter"
	"github.com/SimonWaldherr/tinyrel/internal/server"
)

const prompt = "tinyrel> "

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read commands from stdin and print each result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.newSession()
			if err != nil {
				return err
			}
			format, err := exporter.ParseFormat(a.cfg.Format)
			if err != nil {
				return err
			}
			r := &repl{sess: sess, out: cmd.OutOrStdout(), format: format}
			if in := cmd.InOrStdin(); in != os.Stdin || !isTerminal(os.Stdin) {
				return r.runScanner(cmd.Context(), in)
			}
			return r.runReadline(cmd.Context(), a.cfg.HistoryFile)
		},
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type repl struct {
	sess   *engine.Session
	out    io.Writer
	format exporter.Format
}

// handle processes one input line. It reports false when the session should
// end.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case ".quit", ".exit":
		return false
	case ".help":
		fmt.Fprintln(r.out, "Commands: "+strings.Join(engine.Keywords, ", ")+". Meta: .tables, .schema <table>, .quit")
		return true
	case ".tables":
		for _, name := range r.sess.DB.TableNames() {
			fmt.Fprintln(r.out, name)
		}
		return true
	}
	if fields := strings.Fields(line); fields[0] == ".schema" {
		r.schema(fields[1:])
		return true
	}
	if err := execLine(ctx, r.sess, line, r.out, r.format); err != nil {
		fmt.Fprintln(r.out, err.Error())
		return true
	}
	fmt.Fprintln(r.out, server.SuccessMessage)
	return true
}

// schema prints one "name Type" line per column, marking the key column.
func (r *repl) schema(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: .schema <table>")
		return
	}
	ref, err := r.sess.DB.Table(args[0])
	if err != nil {
		fmt.Fprintln(r.out, err.Error())
		return
	}
	for _, c := range ref.Schema().Columns() {
		if c.Name == ref.KeyColumn() {
			fmt.Fprintf(r.out, "%s %s KEY\n", c.Name, c.Type)
			continue
		}
		fmt.Fprintf(r.out, "%s %s\n", c.Name, c.Type)
	}
}

func (r *repl) runScanner(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 1024), 4*1024*1024)
	for sc.Scan() {
		if !r.handle(ctx, sc.Text()) {
			return nil
		}
	}
	return sc.Err()
}

func (r *repl) runReadline(ctx context.Context, history string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()
	r.out = rl.Stdout()

	fmt.Fprintln(r.out, "tinyrel REPL. Type .help for commands, .quit to exit")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !r.handle(ctx, line) {
			return nil
		}
	}
}

func newCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(engine.Keywords)+4)
	for _, kw := range engine.Keywords {
		items = append(items, readline.PcItem(kw))
	}
	items = append(items, readline.PcItem(".help"), readline.PcItem(".tables"), readline.PcItem(".schema"), readline.PcItem(".quit"))
	return readline.NewPrefixCompleter(items...)
}
