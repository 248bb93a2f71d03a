// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger
}

// New creates a new scheduler. Overlapping runs of the same job are skipped
// rather than queued.
func New(log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.Named("scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish, or for ctx
// to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out waiting for running jobs")
		return ctx.Err()
	}
}

// AddJob registers a new job with a cron schedule
// Schedule examples:
//   - "@every 30s"         - Every 30 seconds
//   - "*/5 * * * *"        - Every 5 minutes
//   - "@hourly"            - Every hour
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debugw("Running job", "job", job.Name())

		if err := job.Run(context.Background()); err != nil {
			s.log.Errorw("Job failed", "job", job.Name(), "error", err)
		} else {
			s.log.Debugw("Job completed", "job", job.Name())
		}
	})
	if err != nil {
		return err
	}

	s.log.Infow("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Infow("Running job immediately", "job", job.Name())
	return job.Run(ctx)
}
