// Package loadtest provides load testing utilities for the record store.
//
// The harness simulates many devices fetching and saving per-user
// collection documents concurrently, to validate that a self-hosted
// record store keeps sub-10ms read latency under realistic fan-out.
package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/focusdeck/focusdeck/internal/engine"
	"github.com/focusdeck/focusdeck/internal/remote"
	"github.com/focusdeck/focusdeck/internal/schema"
)

// TestStore represents a populated record store for load testing.
type TestStore struct {
	Service      *remote.Service
	UserIDs      []string
	TasksPerUser int
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration
	P95          time.Duration
	P99          time.Duration
	TotalOps     int
	Errors       int
	Durations    []time.Duration
}

// Options configures a load test run.
type Options struct {
	Clients      int     // concurrent simulated devices
	OpsPerClient int     // operations per device
	WriteRatio   float64 // fraction of operations that save (0 = read-only)
}

// CreateTestStore opens a record store at dbPath and populates numUsers
// users, each with a task document of tasksPerUser tasks.
func CreateTestStore(dbPath string, numUsers, tasksPerUser int) (*TestStore, error) {
	svc, err := remote.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	if err := svc.InitSchema(); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ts := &TestStore{
		Service:      svc,
		UserIDs:      make([]string, 0, numUsers),
		TasksPerUser: tasksPerUser,
	}

	ctx := context.Background()
	for i := 0; i < numUsers; i++ {
		userID := fmt.Sprintf("loadtest-user-%05d", i)
		doc, err := json.Marshal(generateTaskState(i, tasksPerUser))
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("failed to marshal document for %s: %w", userID, err)
		}
		if err := svc.Save(ctx, userID, engine.KindTasks, doc); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("failed to seed %s: %w", userID, err)
		}
		ts.UserIDs = append(ts.UserIDs, userID)
	}

	return ts, nil
}

// Close closes the underlying record store.
func (ts *TestStore) Close() error {
	if ts.Service != nil {
		return ts.Service.Close()
	}
	return nil
}

// Run simulates concurrent devices, each fetching (and, per WriteRatio,
// re-saving) its user's task document. Returns aggregated latency
// statistics across all operations.
func (ts *TestStore) Run(opts Options) (*LatencyStats, error) {
	if opts.Clients <= 0 || opts.OpsPerClient <= 0 {
		return nil, fmt.Errorf("clients and ops per client must be positive")
	}

	var wg sync.WaitGroup
	resultsChan := make(chan []time.Duration, opts.Clients)
	errorsChan := make(chan error, opts.Clients)

	for i := 0; i < opts.Clients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(clientID)))
			userID := ts.UserIDs[clientID%len(ts.UserIDs)]
			ctx := context.Background()

			durations := make([]time.Duration, 0, opts.OpsPerClient)
			for j := 0; j < opts.OpsPerClient; j++ {
				write := rng.Float64() < opts.WriteRatio

				start := time.Now()
				var err error
				if write {
					var doc []byte
					doc, err = json.Marshal(generateTaskState(clientID, ts.TasksPerUser))
					if err == nil {
						err = ts.Service.Save(ctx, userID, engine.KindTasks, doc)
					}
				} else {
					_, _, err = ts.Service.Fetch(ctx, userID, engine.KindTasks)
				}
				durations = append(durations, time.Since(start))

				if err != nil {
					errorsChan <- fmt.Errorf("client %d op %d failed: %w", clientID, j, err)
					return
				}
			}

			resultsChan <- durations
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	errorCount := 0
	for err := range errorsChan {
		if err != nil {
			errorCount++
			fmt.Printf("Error: %v\n", err)
		}
	}

	var allDurations []time.Duration
	for durations := range resultsChan {
		allDurations = append(allDurations, durations...)
	}
	if len(allDurations) == 0 {
		return nil, fmt.Errorf("no successful operations completed")
	}

	stats := computeLatencyStats(allDurations)
	stats.Errors = errorCount
	return stats, nil
}

// generateTaskState builds a deterministic task collection for a user.
func generateTaskState(seed, count int) schema.TaskState {
	baseTime := time.Now().Add(-30 * 24 * time.Hour)

	state := schema.TaskState{Tasks: make([]schema.Task, count)}
	for i := 0; i < count; i++ {
		state.Tasks[i] = schema.Task{
			ID:                 fmt.Sprintf("task-%05d-%04d", seed, i),
			Title:              fmt.Sprintf("Task %d for user %d", i, seed),
			CreatedAt:          baseTime.Add(time.Duration(i) * time.Minute),
			EstimatedPomodoros: 1 + i%4,
			CompletedPomodoros: i % 2,
			Steps: []schema.Step{
				{ID: fmt.Sprintf("step-%05d-%04d", seed, i), Text: "do it", Completed: i%3 == 0},
			},
			Labels: []string{"loadtest"},
			Order:  i,
		}
	}
	return state
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	mean := sum / time.Duration(len(durations))

	return &LatencyStats{
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		Mean:      mean,
		P50:       sorted[len(sorted)*50/100],
		P95:       sorted[len(sorted)*95/100],
		P99:       sorted[len(sorted)*99/100],
		TotalOps:  len(durations),
		Durations: sorted,
	}
}

// PrintStats formats and prints latency statistics.
func (s *LatencyStats) PrintStats() {
	fmt.Printf("Latency Statistics:\n")
	fmt.Printf("  Total Ops:    %d\n", s.TotalOps)
	fmt.Printf("  Errors:       %d\n", s.Errors)
	fmt.Printf("  Min:          %v\n", s.Min)
	fmt.Printf("  P50 (Median): %v\n", s.P50)
	fmt.Printf("  Mean:         %v\n", s.Mean)
	fmt.Printf("  P95:          %v\n", s.P95)
	fmt.Printf("  P99:          %v\n", s.P99)
	fmt.Printf("  Max:          %v\n", s.Max)
}
