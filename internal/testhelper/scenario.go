// Package testhelper runs YAML command scenarios against a fresh session.
//
// A scenario file lists commands in order. Each step may state the rows a
// SELECT must return or the error code the command must fail with:
//
//	name: accounts
//	key: int
//	steps:
//	  - cmd: CREATE accounts KEY id FIELDS id:Int, name:String
//	  - cmd: SELECT name FROM accounts
//	    cols: [name]
//	    rows: []
//	  - cmd: DELETE 9 FROM accounts
//	    error: KeyNotFound
package testhelper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/engine"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// Step is one command and what it must produce.
type Step struct {
	Cmd   string     `yaml:"cmd"`
	Cols  []string   `yaml:"cols"`
	Rows  [][]string `yaml:"rows"`
	Error string     `yaml:"error"`
	// LogLen, when set, is the expected command log length after the step.
	LogLen *int `yaml:"log_len"`
}

// Scenario is a named list of steps run on one session.
type Scenario struct {
	Name  string `yaml:"name"`
	Key   string `yaml:"key"`
	Steps []Step `yaml:"steps"`
}

// LoadScenario reads one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	return &sc, nil
}

// Run executes the scenario on a fresh session and returns the first
// mismatch.
func (sc *Scenario) Run(ctx context.Context) error {
	kind, err := storage.ParseKeyKind(sc.Key)
	if sc.Key == "" {
		kind, err = storage.IntKeyed, nil
	}
	if err != nil {
		return err
	}
	sess := engine.NewSession(kind, nil)
	for i, st := range sc.Steps {
		if err := st.check(ctx, sess); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Cmd, err)
		}
	}
	return nil
}

func (st Step) check(ctx context.Context, sess *engine.Session) error {
	rs, err := sess.Execute(ctx, st.Cmd)
	if st.Error != "" {
		if err == nil {
			return fmt.Errorf("expected error %s, command succeeded", st.Error)
		}
		if got := dberr.CodeOf(err).String(); got != st.Error {
			return fmt.Errorf("expected error %s, got %s (%v)", st.Error, got, err)
		}
	} else if err != nil {
		return fmt.Errorf("unexpected error: %w", err)
	}

	if st.Cols != nil || st.Rows != nil {
		if rs == nil {
			return fmt.Errorf("expected a result set")
		}
		if st.Cols != nil && !slices.Equal(st.Cols, rs.Cols) {
			return fmt.Errorf("columns differ: expected %v, got %v", st.Cols, rs.Cols)
		}
		got := make([][]string, len(rs.Rows))
		for i, r := range rs.Rows {
			got[i] = make([]string, len(r))
			for j, v := range r {
				got[i][j] = v.String()
			}
		}
		if st.Rows != nil && !slices.EqualFunc(st.Rows, got, func(a, b []string) bool { return slices.Equal(a, b) }) {
			return fmt.Errorf("rows differ: expected %v, got %v", st.Rows, got)
		}
	}
	if st.LogLen != nil && *st.LogLen != sess.Log.Len() {
		return fmt.Errorf("log length: expected %d, got %d", *st.LogLen, sess.Log.Len())
	}
	return nil
}
