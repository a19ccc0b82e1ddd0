package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Options configures a run.
type Options struct {
	// Workers bounds concurrent task executions. Defaults to 4.
	Workers int
	// MaxRetries is the total number of attempts per task. Defaults to 3.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts. Defaults to 2s.
	RetryDelay time.Duration
	// Name labels log lines and progress reports.
	Name string
	Log  *slog.Logger
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.Name == "" {
		o.Name = "tasks"
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
}

// Result collects per-task outcomes keyed by task id.
type Result[R any] struct {
	Values map[string]R
	Failed map[string]error
}

// Run executes fn over tasks with bounded concurrency, retrying each
// failed task up to opts.MaxRetries total attempts with a fixed delay
// between attempts. Every task ends up in exactly one of Values or
// Failed; a task whose attempts are exhausted keeps its last error.
func Run[T, R any](ctx context.Context, tasks []T, id func(T) string, fn func(context.Context, T) (R, error), opts Options) Result[R] {
	opts.normalize()
	res := Result[R]{
		Values: make(map[string]R, len(tasks)),
		Failed: make(map[string]error),
	}
	if len(tasks) == 0 {
		return res
	}

	progress := newProgress(opts.Name, len(tasks), opts.Log)

	type outcome struct {
		id    string
		value R
		err   error
	}
	results := make(chan outcome, len(tasks))
	sem := make(chan struct{}, opts.Workers)

	for _, task := range tasks {
		sem <- struct{}{}
		go func(task T) {
			defer func() { <-sem }()
			taskID := id(task)

			var value R
			var lastErr error
			for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
				value, lastErr = fn(ctx, task)
				if lastErr == nil {
					break
				}
				if attempt == opts.MaxRetries {
					break
				}
				opts.Log.Warn("task attempt failed",
					"name", opts.Name, "task", taskID,
					"attempt", attempt, "error", lastErr)
				select {
				case <-time.After(opts.RetryDelay):
				case <-ctx.Done():
					results <- outcome{id: taskID, err: fmt.Errorf("%s %s: %w", opts.Name, taskID, ctx.Err())}
					return
				}
			}
			results <- outcome{id: taskID, value: value, err: lastErr}
		}(task)
	}

	for range tasks {
		r := <-results
		if r.err != nil {
			res.Failed[r.id] = r.err
			progress.fail(r.id, r.err)
			continue
		}
		res.Values[r.id] = r.value
		progress.done(r.id)
	}
	progress.finish()
	return res
}
