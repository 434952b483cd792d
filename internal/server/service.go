// Package server exposes one tinyrel session over gRPC and HTTP.
//
// What: a gRPC service (JSON codec, hand-written service descriptor, no
// protobuf) and a small HTTP API, both optionally guarded by HS256 bearer
// tokens.
// How: every request goes through Service, which serializes access to the
// single engine.Session with a mutex. Periodic checkpoints take the same lock.
package server

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/engine"
)

// SuccessMessage is returned for every command that ran.
const SuccessMessage = "Command executed successfully"

// ExecRequest carries one command.
type ExecRequest struct {
	Command string `json:"command"`
}

// ExecResponse reports the outcome of one command. Columns, Rows and Output
// are set for SELECT.
type ExecResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
	Code     string   `json:"code,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	Output   string   `json:"output,omitempty"`
	Duration string   `json:"duration"`
}

// Status describes the served database.
type Status struct {
	OK       bool     `json:"ok"`
	Session  string   `json:"session"`
	KeyType  string   `json:"key_type"`
	Tables   []string `json:"tables"`
	Commands int      `json:"commands"`
	Uptime   string   `json:"uptime"`
}

// Service serializes all access to one session.
type Service struct {
	mu      sync.Mutex
	sess    *engine.Session
	logger  *slog.Logger
	started time.Time
}

// NewService wraps sess. The session's Out writer is not used; SELECT output
// is returned in responses.
func NewService(sess *engine.Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sess.Out = nil
	return &Service{sess: sess, logger: logger, started: time.Now()}
}

// Exec runs one command. Command failures are reported in the response, not
// as an error.
func (s *Service) Exec(ctx context.Context, req *ExecRequest) (*ExecResponse, error) {
	start := time.Now()
	s.mu.Lock()
	rs, err := s.sess.Execute(ctx, req.Command)
	s.mu.Unlock()

	if err != nil {
		resp := &ExecResponse{Error: err.Error(), Duration: time.Since(start).String()}
		if code := dberr.CodeOf(err); code != 0 {
			resp.Code = code.String()
		}
		s.logger.Info("command failed", "subject", Subject(ctx), "err", err)
		return resp, nil
	}
	s.logger.Debug("command executed", "subject", Subject(ctx), "cmd", req.Command)
	resp := &ExecResponse{Success: true, Message: SuccessMessage}
	if rs != nil {
		var buf bytes.Buffer
		if err := rs.WriteTSV(&buf); err != nil {
			return nil, err
		}
		resp.Output = buf.String()
		resp.Columns = rs.Cols
		resp.Rows = make([][]any, len(rs.Rows))
		for i, r := range rs.Rows {
			row := make([]any, len(r))
			for j, v := range r {
				row[j] = v.Any()
			}
			resp.Rows[i] = row
		}
	}
	resp.Duration = time.Since(start).String()
	return resp, nil
}

// Status reports the session state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		OK:       true,
		Session:  s.sess.ID.String(),
		KeyType:  s.sess.DB.Kind().String(),
		Tables:   s.sess.DB.TableNames(),
		Commands: s.sess.Log.Len(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	}
}

// Checkpoint saves the command log under the session lock.
func (s *Service) Checkpoint(ctx context.Context, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Checkpoint(ctx, dest)
}
