// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookclub/internal/logging"
)

// PurgeEnqueuer hands a token purge over to whoever executes it, usually
// the task queue.
type PurgeEnqueuer interface {
	EnqueuePurge(ctx context.Context) error
}

// PurgeFunc adapts a function to PurgeEnqueuer.
type PurgeFunc func(ctx context.Context) error

func (f PurgeFunc) EnqueuePurge(ctx context.Context) error { return f(ctx) }

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// TokenPurgeScheduler periodically enqueues the expired token purge.
type TokenPurgeScheduler struct {
	schedule string
	enqueuer PurgeEnqueuer
	log      *logging.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewTokenPurgeScheduler(schedule string, enqueuer PurgeEnqueuer, log *logging.Logger) *TokenPurgeScheduler {
	return &TokenPurgeScheduler{
		schedule: schedule,
		enqueuer: enqueuer,
		log:      log.With("component", "scheduler"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the job and starts cron. An empty schedule disables it.
func (s *TokenPurgeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.log.Info("token purge scheduler: disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	var runCtx context.Context
	runCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.schedule, func() { s.run(runCtx) })
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule token purge: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	s.log.Info("token purge scheduler: started", "schedule", s.schedule, "next_run", s.nextRunLocked())

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops accepting new jobs and waits for a running one to finish.
func (s *TokenPurgeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false
	s.log.Info("token purge scheduler: stopped")
}

func (s *TokenPurgeScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next purge is due, or nil when stopped.
func (s *TokenPurgeScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *TokenPurgeScheduler) nextRunLocked() *time.Time {
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

// RunNow triggers a purge outside the schedule.
func (s *TokenPurgeScheduler) RunNow(ctx context.Context) {
	s.run(ctx)
}

func (s *TokenPurgeScheduler) run(ctx context.Context) {
	if err := s.enqueuer.EnqueuePurge(ctx); err != nil {
		s.log.Error("token purge: failed to enqueue", "error", err)
		return
	}
	s.log.Debug("token purge: enqueued")
}
