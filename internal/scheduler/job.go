// Package scheduler runs the sync and completion jobs on cron schedules and
// guarantees a job never overlaps itself, whether started by cron or HTTP.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roksva123/taskbridge/internal/model"
)

// ErrAlreadyRunning is returned by Trigger while a run of the same job is in flight.
var ErrAlreadyRunning = errors.New("job already running")

// ErrStopped is returned by Trigger once the scheduler has started shutting down.
var ErrStopped = errors.New("job stopped")

// RunFunc is one execution of a job.
type RunFunc func(ctx context.Context) (model.RunSummary, error)

// Recorder stores finished runs.
type Recorder interface {
	CreateSyncHistory(ctx context.Context, h *model.SyncHistory) error
}

// Job is a named unit of work with an in-process running flag.
type Job struct {
	name     string
	run      RunFunc
	recorder Recorder

	running atomic.Bool

	// mu orders wg.Add against the final wg.Wait in drain.
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewJob creates a job. recorder may be nil.
func NewJob(name string, run RunFunc, recorder Recorder) *Job {
	return &Job{name: name, run: run, recorder: recorder}
}

// Name returns the job name.
func (j *Job) Name() string { return j.name }

// Running reports whether a run is in flight.
func (j *Job) Running() bool { return j.running.Load() }

// Trigger runs the job unless it is already running, in which case it
// returns ErrAlreadyRunning without doing any work.
func (j *Job) Trigger(ctx context.Context) (model.RunSummary, error) {
	if !j.running.CompareAndSwap(false, true) {
		return model.RunSummary{Job: j.name, Skipped: true, Reason: "already running"}, ErrAlreadyRunning
	}

	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		j.running.Store(false)
		return model.RunSummary{Job: j.name, Skipped: true, Reason: "shutting down"}, ErrStopped
	}
	j.wg.Add(1)
	j.mu.Unlock()

	defer func() {
		j.running.Store(false)
		j.wg.Done()
	}()

	start := time.Now()
	slog.Info("job started", "job", j.name)

	summary, err := j.run(ctx)
	if summary.Job == "" {
		summary.Job = j.name
	}

	if err != nil {
		summary.Error = err.Error()
		slog.Error("job failed", "job", j.name, "duration", time.Since(start), "error", err)
	} else {
		slog.Info("job finished", "job", j.name, "duration", time.Since(start))
	}

	j.record(context.WithoutCancel(ctx), start, summary, err)
	return summary, err
}

// drain refuses new runs and waits for the one in flight.
func (j *Job) drain() {
	j.mu.Lock()
	j.stopped = true
	j.mu.Unlock()
	j.wg.Wait()
}

func (j *Job) record(ctx context.Context, start time.Time, summary model.RunSummary, runErr error) {
	if j.recorder == nil {
		return
	}

	status := model.RunSuccess
	switch {
	case runErr != nil:
		status = model.RunFailed
	case summary.Skipped:
		status = model.RunSkipped
	}

	details, err := json.Marshal(summary)
	if err != nil {
		slog.Error("failed to encode run summary", "job", j.name, "error", err)
		return
	}

	h := &model.SyncHistory{
		ID:         uuid.NewString(),
		Job:        j.name,
		Status:     status,
		StartedAt:  start.UTC(),
		DurationMs: time.Since(start).Milliseconds(),
		Details:    details,
	}
	if err := j.recorder.CreateSyncHistory(ctx, h); err != nil {
		slog.Error("failed to record run history", "job", j.name, "error", err)
	}
}
