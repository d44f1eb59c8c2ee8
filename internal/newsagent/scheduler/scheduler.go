// Package scheduler submits report runs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
)

// Job represents a scheduled task.
type Job struct {
	Name     string
	Schedule string // standard 5-field cron expression or a descriptor like "@daily"
	Fn       func(ctx context.Context) error
}

// Submitter starts a run in the background.
type Submitter interface {
	Submit(req pipeline.Request) string
}

// ReportJob returns a job that submits one run for period, delivered to callbackURL.
func ReportJob(name, schedule, period, callbackURL string, runner Submitter) Job {
	return Job{
		Name:     name,
		Schedule: schedule,
		Fn: func(ctx context.Context) error {
			id := runner.Submit(pipeline.Request{Period: period, CallbackURL: callbackURL})
			slog.Default().Info("scheduled run submitted", "job", name, "run_id", id)
			return nil
		},
	}
}

// Scheduler runs jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger *slog.Logger
}

// NewScheduler creates a new scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: slog.Default(),
	}
}

// Add registers a job. It fails if the schedule does not parse.
func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		s.run(context.Background(), job)
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", job.Name, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.jobs) }

// RunOnce executes all registered jobs once, stopping at the first error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	for _, job := range s.jobs {
		if err := s.run(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	s.logger.Info("running job", "name", job.Name)
	start := time.Now()
	if err := job.Fn(ctx); err != nil {
		s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Info("job completed", "name", job.Name, "duration", time.Since(start))
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info("scheduler stopped")
}
