package loadtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/focusdeck/focusdeck/internal/engine"
)

func createStore(t *testing.T, users, tasksPerUser int) *TestStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "loadtest.db")
	ts, err := CreateTestStore(dbPath, users, tasksPerUser)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})
	return ts
}

func TestCreateTestStore_SeedsUsers(t *testing.T) {
	ts := createStore(t, 5, 10)

	if len(ts.UserIDs) != 5 {
		t.Fatalf("seeded %d users, want 5", len(ts.UserIDs))
	}

	ctx := context.Background()
	for _, userID := range ts.UserIDs {
		data, ok, err := ts.Service.Fetch(ctx, userID, engine.KindTasks)
		if err != nil {
			t.Fatalf("fetch for %s failed: %v", userID, err)
		}
		if !ok || len(data) == 0 {
			t.Errorf("user %s has no seeded document", userID)
		}
	}
}

func TestRun_ReadOnly(t *testing.T) {
	ts := createStore(t, 4, 20)

	stats, err := ts.Run(Options{Clients: 8, OpsPerClient: 5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if stats.TotalOps != 40 {
		t.Errorf("total ops = %d, want 40", stats.TotalOps)
	}
	if stats.Errors != 0 {
		t.Errorf("errors = %d, want 0", stats.Errors)
	}
	if stats.Min > stats.P50 || stats.P50 > stats.Max {
		t.Errorf("percentiles out of order: min=%v p50=%v max=%v", stats.Min, stats.P50, stats.Max)
	}
	if stats.Mean <= 0 {
		t.Errorf("mean = %v, want positive", stats.Mean)
	}
}

func TestRun_MixedReadWrite(t *testing.T) {
	ts := createStore(t, 2, 5)

	stats, err := ts.Run(Options{Clients: 4, OpsPerClient: 10, WriteRatio: 0.5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.TotalOps != 40 || stats.Errors != 0 {
		t.Errorf("stats = %d ops %d errors, want 40 and 0", stats.TotalOps, stats.Errors)
	}
}

func TestRun_RejectsBadOptions(t *testing.T) {
	ts := createStore(t, 1, 1)

	if _, err := ts.Run(Options{Clients: 0, OpsPerClient: 5}); err == nil {
		t.Error("expected error for zero clients")
	}
	if _, err := ts.Run(Options{Clients: 5, OpsPerClient: 0}); err == nil {
		t.Error("expected error for zero ops")
	}
}

func TestComputeLatencyStats(t *testing.T) {
	durations := []time.Duration{
		5 * time.Millisecond,
		1 * time.Millisecond,
		3 * time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
	}

	stats := computeLatencyStats(durations)
	if stats.Min != 1*time.Millisecond || stats.Max != 5*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 1ms/5ms", stats.Min, stats.Max)
	}
	if stats.Mean != 3*time.Millisecond {
		t.Errorf("mean = %v, want 3ms", stats.Mean)
	}
	if stats.TotalOps != 5 {
		t.Errorf("total = %d, want 5", stats.TotalOps)
	}
}
