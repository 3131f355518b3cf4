// Package jobs runs periodic maintenance inside the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// defaultRunTimeout bounds a single job run
const defaultRunTimeout = 4 * time.Minute

// Task is one unit of scheduled work
type Task func(ctx context.Context) error

// Scheduler wraps a cron runner whose jobs never overlap with themselves
type Scheduler struct {
	cron       *cron.Cron
	logger     zerolog.Logger
	runTimeout time.Duration
	jobs       int
}

// NewScheduler creates a stopped scheduler
func NewScheduler(logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		logger:     logger,
		runTimeout: defaultRunTimeout,
	}
}

// Add registers task under name. An empty schedule disables the job.
func (s *Scheduler) Add(name, schedule string, task Task) error {
	if schedule == "" {
		s.logger.Info().Str("job", name).Msg("Job disabled, no schedule configured")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.run(name, task)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}

	s.jobs++
	s.logger.Info().Str("job", name).Str("schedule", schedule).Msg("Job scheduled")
	return nil
}

func (s *Scheduler) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	start := time.Now()
	if err := task(ctx); err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("Job failed")
		return
	}
	s.logger.Info().Str("job", name).Dur("took", time.Since(start)).Msg("Job finished")
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	return s.jobs
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	if s.jobs == 0 {
		return
	}
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Timed out waiting for running jobs")
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
