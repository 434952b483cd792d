package storage

import (
	"bufio"
	"io"
	"strings"
)

// CommandLog is the append-only, ordered record of successfully executed
// command text. Saved as one command per line, it replays into an equivalent
// database.
type CommandLog struct {
	entries []string
}

// NewCommandLog returns an empty log.
func NewCommandLog() *CommandLog { return &CommandLog{} }

// Append records one command.
func (l *CommandLog) Append(cmd string) {
	l.entries = append(l.entries, cmd)
}

// Len returns the number of entries.
func (l *CommandLog) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in execution order.
func (l *CommandLog) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// WriteTo writes every entry followed by a newline.
func (l *CommandLog) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range l.entries {
		m, err := bw.WriteString(e + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReadCommands splits r into command lines, dropping blank lines and
// trailing carriage returns.
func ReadCommands(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var out []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
