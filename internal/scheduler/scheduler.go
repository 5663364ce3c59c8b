// Package scheduler runs the bot's daily jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled task. Errors are logged, never retried.
type Job func(ctx context.Context) error

// Scheduler manages scheduled jobs.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	jobs   map[string]Job
}

// New creates a scheduler whose specs are interpreted in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]Job),
	}
}

// Add registers fn under name with a standard five-field cron spec.
func (s *Scheduler) Add(spec, name string, fn Job) error {
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs[name] = fn
	log.Printf("📅 Job %s scheduled at %q", name, spec)
	return nil
}

// RunNow executes a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	fn, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return fn(s.ctx)
}

func (s *Scheduler) run(name string) {
	log.Printf("🕘 Triggered job %s", name)
	if err := s.jobs[name](s.ctx); err != nil {
		log.Printf("❌ Job %s failed: %v", name, err)
	}
}

// Start launches the cron loop. With no jobs it does nothing.
func (s *Scheduler) Start() {
	if len(s.jobs) == 0 {
		log.Println("⚠️ No jobs registered, scheduler not started")
		return
	}
	s.cron.Start()
	log.Printf("📅 Scheduler started with %d jobs", len(s.jobs))
}

// Stop waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}

// IsRunning reports whether any job is scheduled.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
