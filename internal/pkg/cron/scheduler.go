package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/pkg/clock"
)

// Schedule returns the next run time strictly after now.
type Schedule interface {
	Next(now time.Time) time.Time
}

// Every runs a job at a fixed interval.
type Every time.Duration

func (e Every) Next(now time.Time) time.Time {
	return now.Add(time.Duration(e))
}

// DailyAt runs a job once a day at a wall-clock time in Location.
type DailyAt struct {
	At       clock.Clock
	Location *time.Location
}

func (d DailyAt) Next(now time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := d.At.On(time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), loc)
	if !next.After(now) {
		next = d.At.On(time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.UTC), loc)
	}
	return next
}

// Job represents a scheduled job
type Job struct {
	Name       string
	Schedule   Schedule
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a new cron scheduler
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make([]Job, 0),
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	s.logger.Info("Cron job registered", "name", job.Name, "next_run", job.Schedule.Next(s.now()))
}

// Jobs returns the names of registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name)
	}
	return names
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	s.logger.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop gracefully stops all scheduled jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Cron scheduler stopped")
}

// runJob runs a single job on its schedule
func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	if job.RunOnStart {
		s.executeJob(s.ctx, job)
	}

	for {
		timer := time.NewTimer(job.Schedule.Next(s.now()).Sub(s.now()))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.logger.Info("Cron job stopping", "name", job.Name)
			return
		case <-timer.C:
			s.executeJob(s.ctx, job)
		}
	}
}

// executeJob executes a job and logs results
func (s *Scheduler) executeJob(ctx context.Context, job Job) {
	start := time.Now()
	s.logger.Debug("Cron job starting", "name", job.Name)

	if err := job.Fn(ctx); err != nil {
		s.logger.Error("Cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		s.logger.Debug("Cron job completed", "name", job.Name, "duration", time.Since(start))
	}
}

// RunOnce runs all jobs once (useful for testing)
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.executeJob(ctx, job)
	}
}
