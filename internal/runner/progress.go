package runner

import (
	"log/slog"
	"time"
)

// progress reports completion rate and a rough ETA as tasks finish. It
// is only touched from the result-collection goroutine, so no locking.
type progress struct {
	name      string
	total     int
	completed int
	failed    int
	started   time.Time
	log       *slog.Logger
}

func newProgress(name string, total int, log *slog.Logger) *progress {
	return &progress{
		name:    name,
		total:   total,
		started: time.Now(),
		log:     log,
	}
}

func (p *progress) done(id string) {
	p.completed++
	p.report(id)
}

func (p *progress) fail(id string, err error) {
	p.failed++
	p.log.Error("task failed", "name", p.name, "task", id, "error", err)
	p.report(id)
}

func (p *progress) report(id string) {
	finished := p.completed + p.failed
	elapsed := time.Since(p.started)
	rate := float64(finished) / elapsed.Seconds()
	var eta time.Duration
	if rate > 0 {
		eta = time.Duration(float64(p.total-finished)/rate) * time.Second
	}
	p.log.Info("progress",
		"name", p.name,
		"task", id,
		"finished", finished,
		"total", p.total,
		"failed", p.failed,
		"eta", eta.Round(time.Second).String(),
	)
}

func (p *progress) finish() {
	p.log.Info("run complete",
		"name", p.name,
		"completed", p.completed,
		"failed", p.failed,
		"elapsed", time.Since(p.started).Round(time.Millisecond).String(),
	)
}
