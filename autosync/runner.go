package autosync

import (
	"context"
	"time"

	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/types"
)

// Scheduling defaults.
const (
	DefaultInterval    = 6 * time.Hour
	DefaultBackoffBase = 30 * time.Second
)

// Job is one schedulable run.
type Job interface {
	Execute(ctx context.Context) Report
}

// Backoff returns the delay before rerunning after the failures-th
// consecutive retry. A partial run waits twice as long as a run that
// delivered nothing. The delay never exceeds interval.
func Backoff(status types.AutoSyncStatus, failures int, base, interval time.Duration) time.Duration {
	if failures < 1 {
		failures = 1
	}
	delay := base
	if status == types.AutoSyncPartial {
		delay = 2 * base
	}
	for i := 1; i < failures && delay < interval; i++ {
		delay *= 2
	}
	if delay > interval {
		delay = interval
	}
	return delay
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBackoffBase sets the first retry delay.
func WithBackoffBase(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.base = d
		}
	}
}

// WithOnRun registers a callback invoked after every run.
func WithOnRun(fn func(Report)) RunnerOption {
	return func(r *Runner) {
		r.onRun = fn
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner runs a Job periodically, pulling the next run forward with backoff
// after a retry result.
type Runner struct {
	job      Job
	interval time.Duration
	base     time.Duration
	onRun    func(Report)
	logger   *log.Logger
}

// NewRunner creates a Runner. interval <= 0 uses DefaultInterval.
func NewRunner(job Job, interval time.Duration, opts ...RunnerOption) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Runner{
		job:      job,
		interval: interval,
		base:     DefaultBackoffBase,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the job immediately and then on schedule until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	failures := 0
	for {
		report := r.job.Execute(ctx)
		if r.onRun != nil {
			r.onRun(report)
		}
		if ctx.Err() != nil {
			return nil
		}

		delay := r.interval
		if report.Result == ResultRetry {
			failures++
			delay = Backoff(report.Stats.Status, failures, r.base, r.interval)
			r.logger.Info("auto-sync retry scheduled", map[string]any{
				"status":   string(report.Stats.Status),
				"failures": failures,
				"delay":    delay.String(),
			})
		} else {
			failures = 0
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
