// Package poll tracks ingestion runs triggered by the API, the CLI and the
// scheduler, and reports the outcome of the latest one.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helrabelo/job-search/internal/ingest"
)

type Ingester interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

type Status struct {
	LastRunAt   string         `json:"last_run_at"`
	LastOkAt    string         `json:"last_ok_at"`
	LastError   string         `json:"last_error"`
	LastSummary ingest.Summary `json:"last_summary"`
	Running     bool           `json:"running"`
	Skipped     int64          `json:"skipped"`
}

// Runner wraps an Ingester and records every run. It does not serialize
// runs: overlapping runs are safe at the store level.
type Runner struct {
	ing    Ingester
	logger *slog.Logger
	now    func() time.Time

	inflight atomic.Int32
	skipped  atomic.Int64

	mu sync.Mutex
	st Status
}

func NewRunner(ing Ingester, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		ing:    ing,
		logger: logger.With("component", "poll"),
		now:    time.Now,
	}
}

// Run performs one ingestion run and records it.
func (r *Runner) Run(ctx context.Context) (ingest.Summary, error) {
	r.inflight.Add(1)
	return r.run(ctx)
}

// run expects the caller to have taken an inflight slot and releases it.
func (r *Runner) run(ctx context.Context) (ingest.Summary, error) {
	defer r.inflight.Add(-1)

	r.mu.Lock()
	r.st.LastRunAt = r.now().Format(time.RFC3339)
	r.mu.Unlock()

	sum, err := r.ing.Run(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.st.LastError = err.Error()
		r.logger.Error("ingestion run failed", "error", err)
		return sum, err
	}
	r.st.LastError = ""
	r.st.LastOkAt = r.now().Format(time.RFC3339)
	r.st.LastSummary = sum
	return sum, nil
}

// RunIfIdle runs only when no other tracked run is in flight. ran is false
// when the run was skipped.
func (r *Runner) RunIfIdle(ctx context.Context) (sum ingest.Summary, ran bool, err error) {
	if !r.inflight.CompareAndSwap(0, 1) {
		n := r.skipped.Add(1)
		r.logger.Info("ingestion already running, skipping", "skipped_total", n)
		return ingest.Summary{}, false, nil
	}
	sum, err = r.run(ctx)
	return sum, true, err
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	st := r.st
	r.mu.Unlock()
	st.Running = r.inflight.Load() > 0
	st.Skipped = r.skipped.Load()
	return st
}
