package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ==================== Checkpoint Scheduler ====================
// Saves the command log to a destination on a CRON schedule

// Checkpointer persists the current command log to dest.
type Checkpointer interface {
	Checkpoint(ctx context.Context, dest string) error
}

// Scheduler runs periodic checkpoints. Runs never overlap: a tick that fires
// while the previous checkpoint is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	target  Checkpointer
	dest    string
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
	runs    int
	lastErr error
	lastRun time.Time
}

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewScheduler validates schedule and prepares a scheduler that checkpoints
// target to dest. schedule is a 5 or 6 field CRON expression or a descriptor such
// as "@hourly" or "@every 5m".
func NewScheduler(schedule, dest string, target Checkpointer, logger *slog.Logger) (*Scheduler, error) {
	if dest == "" {
		return nil, fmt.Errorf("checkpoint destination empty")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		target:  target,
		dest:    dest,
		logger:  logger,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid checkpoint schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins firing checkpoints.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("checkpoint scheduler started", "dest", s.dest)
}

// Stop halts the schedule and waits for a running checkpoint to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("checkpoint scheduler stopped", "runs", s.Runs())
}

// RunNow performs one checkpoint immediately, outside the schedule.
func (s *Scheduler) RunNow() error {
	s.run()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Runs returns the number of completed checkpoints, failed ones included.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// LastRun returns when the last checkpoint finished and its error.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) run() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("checkpoint still running, skipping", "dest", s.dest)
		return
	}
	s.running = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	err := s.target.Checkpoint(ctx, s.dest)
	if err != nil {
		s.logger.Error("checkpoint failed", "dest", s.dest, "err", err)
	} else {
		s.logger.Info("checkpoint written", "dest", s.dest, "took", time.Since(start))
	}

	s.mu.Lock()
	s.running = false
	s.runs++
	s.lastErr = err
	s.lastRun = time.Now()
	s.mu.Unlock()
}
