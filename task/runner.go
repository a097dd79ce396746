// ytparser/task/runner.go
package task

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// JobFunc is a kind-specific job body. It may call report any number of
// times with a 0-100 percentage and returns either a result or an error.
type JobFunc func(ctx context.Context, report func(pct float64)) (*Result, error)

// terminalAttempts / terminalBackoff govern the retry of the final store
// write. Losing that write would strand the task in "processing" forever
// from the client's point of view.
const (
	terminalAttempts = 3
	terminalBackoff  = 200 * time.Millisecond
)

type progressUpdate struct {
	taskID   string
	progress float64
}

// Runner drives a task through its lifecycle: processing on start, then
// exactly one terminal write (completed+result or failed+error). Job errors
// and panics never propagate past the runner.
//
// Progress reports travel over a buffered channel drained by a single
// consumer goroutine, so a job (or a foreign worker thread calling the hook)
// is never blocked on store I/O; reports are dropped when the buffer is full.
type Runner struct {
	store   Store
	log     *zap.Logger
	updates chan progressUpdate
	base    context.Context
}

func NewRunner(store Store, log *zap.Logger) *Runner {
	return &Runner{
		store:   store,
		log:     log,
		updates: make(chan progressUpdate, 256),
		base:    context.Background(),
	}
}

// Start launches the progress consumer loop. Jobs dispatched afterwards run
// under ctx; cancelling it stops the loop and any extractor subprocesses,
// but a client disconnect never reaches a dispatched job.
func (r *Runner) Start(ctx context.Context) {
	r.base = ctx
	go r.progressLoop(ctx)
}

func (r *Runner) progressLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-r.updates:
			t, err := r.store.Get(ctx, u.taskID)
			if err != nil {
				continue
			}
			if t.Status.Terminal() {
				// A report queued before the terminal write landed must not
				// drag a finished task's progress back below 100.
				continue
			}
			if err := r.store.Update(ctx, u.taskID, Update{Progress: &u.progress}); err != nil {
				r.log.Warn("progress update failed", zap.String("task_id", u.taskID), zap.Error(err))
			}
		}
	}
}

// Report relays a progress percentage to the store without blocking the
// caller. Safe to call from any goroutine, including ones parsing extractor
// output.
func (r *Runner) Report(taskID string, pct float64) {
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	select {
	case r.updates <- progressUpdate{taskID: taskID, progress: pct}:
	default:
		// A full buffer means the store is slow; dropping an intermediate
		// report is harmless since the terminal write sets 100 anyway.
	}
}

// Dispatch schedules the job to run in the background, independently of the
// submitting request.
func (r *Runner) Dispatch(taskID string, job JobFunc) {
	go r.run(taskID, job)
}

func (r *Runner) run(taskID string, job JobFunc) {
	ctx := r.base

	processing := StatusProcessing
	if err := r.store.Update(ctx, taskID, Update{Status: &processing}); err != nil {
		r.log.Warn("could not mark task processing", zap.String("task_id", taskID), zap.Error(err))
	}

	result, err := r.invoke(ctx, taskID, job)
	if err != nil {
		r.log.Warn("task failed", zap.String("task_id", taskID), zap.Error(err))
		failed := StatusFailed
		msg := err.Error()
		r.terminal(ctx, taskID, Update{Status: &failed, Error: &msg})
		return
	}

	completed := StatusCompleted
	full := 100.0
	r.terminal(ctx, taskID, Update{Status: &completed, Progress: &full, Result: result})
	r.log.Info("task completed", zap.String("task_id", taskID))
}

// invoke runs the job body, converting panics into plain job failures so the
// background goroutine can never crash the process.
func (r *Runner) invoke(ctx context.Context, taskID string, job JobFunc) (result *Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("job panic: %v", v)
		}
	}()
	return job(ctx, func(pct float64) { r.Report(taskID, pct) })
}

// terminal performs the final status write, retrying a few times on
// transient store failures.
func (r *Runner) terminal(ctx context.Context, taskID string, u Update) {
	var err error
	for attempt := 0; attempt < terminalAttempts; attempt++ {
		if err = r.store.Update(ctx, taskID, u); err == nil {
			return
		}
		time.Sleep(terminalBackoff * time.Duration(attempt+1))
	}
	r.log.Error("terminal update lost, task stuck in processing",
		zap.String("task_id", taskID), zap.Error(err))
}
