package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/shareholders/internal/domain"
)

type mockRunner struct {
	callCount atomic.Int32
	running   atomic.Int32
	overlap   atomic.Bool
	err       error
}

func (m *mockRunner) Run(_ context.Context) (domain.Report, error) {
	if m.running.Add(1) > 1 {
		m.overlap.Store(true)
	}
	defer m.running.Add(-1)
	m.callCount.Add(1)
	time.Sleep(5 * time.Millisecond)
	return domain.Report{}, m.err
}

func TestReportWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockRunner{}
	w := NewReportWorker(mock, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2 (initial run plus ticks)", got)
	}
	if mock.overlap.Load() {
		t.Error("runs overlapped")
	}
}

func TestReportWorkerKeepsRunningAfterFailure(t *testing.T) {
	mock := &mockRunner{err: errors.New("upstream down")}
	w := NewReportWorker(mock, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2 despite failures", got)
	}
}
