// Package scheduler runs the studio's periodic maintenance jobs on cron
// schedules in the studio's timezone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/pkg/logger"
)

// Job is a named unit of periodic work. An empty Schedule registers the job
// for on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Func adapts a function returning an affected-row count into a Job.
type Func struct {
	JobName string
	Spec    string
	Fn      func(ctx context.Context) (int64, error)
}

func (f Func) Name() string     { return f.JobName }
func (f Func) Schedule() string { return f.Spec }

func (f Func) Run(ctx context.Context) error {
	n, err := f.Fn(ctx)
	if err != nil {
		return err
	}
	logger.From(ctx).Info("rows affected", "count", n)
	return nil
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a scheduler whose cron specs are read in loc.
func New(loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		timeout: timeout,
		logger:  logger.LoggerWrapper(),
	}
}

// LoadLocation resolves the configured timezone, falling back to UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.LoggerWrapper().Warn("unknown timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func (s *Scheduler) Register(job Job) error {
	if job.Schedule() == "" {
		s.jobs = append(s.jobs, job)
		s.logger.Info("job registered for on-demand runs", "job", job.Name())
		return nil
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { _ = s.execute(context.Background(), job) }); err != nil {
		return fmt.Errorf("failed to schedule %s with %q: %w", job.Name(), job.Schedule(), err)
	}
	s.jobs = append(s.jobs, job)
	s.logger.Info("job scheduled", "job", job.Name(), "spec", job.Schedule())
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop halts the cron loop and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped with jobs still running")
	}
	s.logger.Info("scheduler stopped")
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job %q is not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = logger.With(ctx, "job", job.Name())

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Info("job completed", "job", job.Name(), "duration", time.Since(start))
	return nil
}
