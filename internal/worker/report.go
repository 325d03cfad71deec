package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/shareholders/internal/domain"
)

// ReportRunner produces one report per call.
type ReportRunner interface {
	Run(ctx context.Context) (domain.Report, error)
}

// ReportWorker re-runs the pipeline on a fixed interval. Runs never overlap:
// each one executes on the worker goroutine and the next tick waits for it.
type ReportWorker struct {
	runner   ReportRunner
	interval time.Duration
}

// NewReportWorker creates a new ReportWorker.
func NewReportWorker(runner ReportRunner, interval time.Duration) *ReportWorker {
	return &ReportWorker{
		runner:   runner,
		interval: interval,
	}
}

func (w *ReportWorker) runOnce(ctx context.Context) {
	rep, err := w.runner.Run(ctx)
	if err != nil {
		slog.Error("ReportWorker: run failed", "error", err)
		return
	}
	slog.Info("ReportWorker: run completed",
		"holdings", len(rep.Holdings), "countries", len(rep.Countries), "duplicates", rep.DuplicatesRemoved)
}

// Run starts the worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting", "interval", w.interval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}
