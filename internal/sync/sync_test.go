package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Name() string { return "mock" }

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func TestSchedulerStartStop(t *testing.T) {
	ms := newMockStore()
	ms.seed(time.Now().UTC())

	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(ms, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start(context.Background())

	// Wait for at least the initial sync + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	if lines := nonEmptyLines(string(data)); len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(newMockStore(), nil, time.Minute, nil)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerStop_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dest := &mockDestination{}
	sched := NewScheduler(newMockStore(), []Destination{dest}, time.Hour, nil)
	sched.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}

func TestSyncOnce_PartialFailure(t *testing.T) {
	bad := &mockDestination{err: errors.New("unreachable")}
	good := &mockDestination{}
	sched := NewScheduler(newMockStore(), []Destination{bad, good}, time.Minute, nil)

	err := sched.SyncOnce(context.Background())
	if err == nil {
		t.Fatal("expected error from failing destination")
	}
	if good.writes.Load() != 1 {
		t.Fatalf("good destination writes = %d, want 1", good.writes.Load())
	}
}
