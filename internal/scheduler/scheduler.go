package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

// Entry schedules a job.
type Entry struct {
	Job *Job
	// Cron is a standard five-field expression.
	Cron string
	// Timezone is an IANA name; empty means the process local time.
	Timezone  string
	RunOnBoot bool
}

func (e Entry) spec() string {
	spec := strings.TrimSpace(e.Cron)
	if tz := strings.TrimSpace(e.Timezone); tz != "" {
		spec = "CRON_TZ=" + tz + " " + spec
	}
	return spec
}

// Scheduler owns the cron runner for a set of jobs.
type Scheduler struct {
	cron    *cron.Cron
	entries []Entry
	boot    sync.WaitGroup
}

// New validates every entry and registers it. Any invalid expression or
// timezone is an error.
func New(entries ...Entry) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), entries: entries}
	for _, e := range entries {
		spec := e.spec()
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", spec, e.Job.Name(), err)
		}
	}
	return s, nil
}

// Start starts the cron runner and kicks off run-on-boot jobs. Scheduled
// runs use ctx, so cancelling it aborts in-flight work.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, e := range s.entries {
		job := e.Job
		if _, err := s.cron.AddFunc(e.spec(), func() { fire(ctx, job) }); err != nil {
			return fmt.Errorf("scheduling job %s: %w", job.Name(), err)
		}
		slog.Info("job scheduled", "job", job.Name(), "cron", e.spec(), "run_on_boot", e.RunOnBoot)
	}
	s.cron.Start()

	for _, e := range s.entries {
		if !e.RunOnBoot {
			continue
		}
		job := e.Job
		s.boot.Add(1)
		go func() {
			defer s.boot.Done()
			fire(ctx, job)
		}()
	}
	return nil
}

func fire(ctx context.Context, job *Job) {
	_, err := job.Trigger(ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		slog.Info("previous run still in progress, skipping", "job", job.Name())
	case errors.Is(err, ErrStopped):
		slog.Info("scheduler stopping, skipping run", "job", job.Name())
	}
}

// Stop stops scheduling new runs, refuses further triggers and waits for
// running ones, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.boot.Wait()
		for _, e := range s.entries {
			e.Job.drain()
		}
		close(done)
	}()

	select {
	case <-done:
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
