package retention

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeStore struct {
	sweeps  atomic.Int64
	removed int
}

func (f *fakeStore) Sweep(ctx context.Context) (int, error) {
	f.sweeps.Add(1)
	return f.removed, nil
}

// TestSweeper_EmptyScheduleIsNoOp tests that a blank schedule disables the
// scheduler without error.
func TestSweeper_EmptyScheduleIsNoOp(t *testing.T) {
	s := NewSweeper(&fakeStore{}, "")

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if s.IsRunning() {
		t.Error("sweeper running with empty schedule")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() non-nil with empty schedule")
	}
}

// TestSweeper_RejectsBadSchedule tests cron expression validation.
func TestSweeper_RejectsBadSchedule(t *testing.T) {
	s := NewSweeper(&fakeStore{}, "not a cron line")

	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("Start() accepted an invalid schedule")
	}
}

// TestSweeper_StartStop tests lifecycle and that cancellation stops the
// scheduler.
func TestSweeper_StartStop(t *testing.T) {
	store := &fakeStore{}
	s := NewSweeper(store, "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("sweeper not running after Start()")
	}
	if s.NextRun() == nil {
		t.Error("NextRun() nil while scheduled")
	}

	cancel()

	deadline := time.After(2 * time.Second)
	for s.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("sweeper still running after context cancel")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestSweeper_RunSweep tests the sweep cycle against the store contract.
func TestSweeper_RunSweep(t *testing.T) {
	store := &fakeStore{removed: 4}
	s := NewSweeper(store, "0 3 * * *")

	s.runSweep(context.Background())

	if got := store.sweeps.Load(); got != 1 {
		t.Errorf("store swept %d times, want 1", got)
	}
}
