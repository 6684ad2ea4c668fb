package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/store"
)

// fakeRemote is an in-memory Remote with controllable failures.
type fakeRemote[C any] struct {
	mu         sync.Mutex
	collection C
	found      bool
	failFetch  bool
	failSave   bool
	fetches    int
	saves      int

	// saveGate, when non-nil, blocks Save until the channel closes.
	saveGate chan struct{}
}

func (f *fakeRemote[C]) Fetch(ctx context.Context) (C, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failFetch {
		var zero C
		return zero, false, fmt.Errorf("connection refused")
	}
	return f.collection, f.found, nil
}

func (f *fakeRemote[C]) Save(ctx context.Context, collection C) error {
	f.mu.Lock()
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failSave {
		return fmt.Errorf("server error")
	}
	f.collection = collection
	f.found = true
	return nil
}

func (f *fakeRemote[C]) set(collection C) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collection = collection
	f.found = true
}

// newTestTasks builds a task engine over a real local store and a fake
// remote, with logging silenced.
func newTestTasks(t *testing.T) (*Tasks, *fakeRemote[schema.TaskState], *store.Local) {
	t.Helper()

	local := store.NewLocal(t.TempDir())
	remote := &fakeRemote[schema.TaskState]{}
	logger := log.New(io.Discard, "", 0)

	tasks, err := NewTasks(remote, local, logger)
	if err != nil {
		t.Fatalf("failed to create task engine: %v", err)
	}
	return tasks, remote, local
}

func TestMutate_RollbackOnSaveFailure(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	ctx := context.Background()

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}
	if _, err := tasks.Add(ctx, schema.Task{Title: "Existing task"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	before := tasks.State().Collection

	remote.failSave = true
	_, err := tasks.Add(ctx, schema.Task{Title: "Doomed task"})
	if err == nil {
		t.Fatal("expected error from failed save")
	}

	after := tasks.State()
	if !reflect.DeepEqual(before, after.Collection) {
		t.Errorf("collection after failed mutation differs from before:\nbefore: %+v\nafter:  %+v",
			before, after.Collection)
	}
	// Add selects the new task; the rollback must revert the selection too.
	if after.Collection.SelectedID != before.SelectedID {
		t.Errorf("selection = %q, want %q", after.Collection.SelectedID, before.SelectedID)
	}
	if after.LastError == "" {
		t.Error("expected recorded error after rollback")
	}
	if after.Saving {
		t.Error("saving flag should clear after a failed save")
	}
}

func TestMutate_ErrorFromOpLeavesStateUntouched(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	ctx := context.Background()

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}
	savesBefore := remote.saves

	if err := tasks.Delete(ctx, "no-such-task"); err == nil {
		t.Fatal("expected not-found error")
	}
	if remote.saves != savesBefore {
		t.Error("a rejected op must not reach the remote")
	}
}

func TestGuestMode_PersistsLocally(t *testing.T) {
	tasks, remote, local := newTestTasks(t)
	ctx := context.Background()

	tasks.InitializeGuest()
	if _, err := tasks.Add(ctx, schema.Task{Title: "Guest task"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if remote.saves != 0 {
		t.Error("guest mode must not call the remote")
	}

	data, ok := local.Read(KindTasks)
	if !ok {
		t.Fatal("guest mutation should produce a local entry")
	}
	var state schema.TaskState
	if err := schema.DecodeEnvelope(data, &state); err != nil {
		t.Fatalf("failed to decode local envelope: %v", err)
	}
	if len(state.Tasks) != 1 || state.Tasks[0].Title != "Guest task" {
		t.Errorf("local state = %+v, want the guest task", state.Tasks)
	}
}

func TestCloudMode_SuppressesLocalStorage(t *testing.T) {
	tasks, _, local := newTestTasks(t)
	ctx := context.Background()

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}
	if _, err := tasks.Add(ctx, schema.Task{Title: "Cloud task"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if _, ok := local.Read(KindTasks); ok {
		t.Error("cloud-mode mutation must not leave a local entry")
	}
	if _, err := os.Stat(filepath.Join(local.Dir(), "tasks.json")); !os.IsNotExist(err) {
		t.Error("tasks.json should not exist in cloud mode")
	}
}

func TestInitializeCloud_EmptyRemoteIsNotError(t *testing.T) {
	tasks, _, _ := newTestTasks(t)

	if err := tasks.InitializeCloud(context.Background()); err != nil {
		t.Fatalf("init against empty remote should succeed: %v", err)
	}

	snap := tasks.State()
	if snap.Mode != ModeCloud {
		t.Errorf("mode = %s, want cloud", snap.Mode)
	}
	if len(snap.Collection.Tasks) != 0 {
		t.Errorf("expected empty collection, got %d tasks", len(snap.Collection.Tasks))
	}
	if snap.LastError != "" {
		t.Errorf("unexpected recorded error: %s", snap.LastError)
	}
}

func TestInitializeCloud_RemoteWinsOverGuestData(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	ctx := context.Background()

	tasks.InitializeGuest()
	if _, err := tasks.Add(ctx, schema.Task{Title: "Guest task"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	remote.set(schema.TaskState{Tasks: []schema.Task{
		{ID: "cloud-1", Title: "Cloud task"},
	}})

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}

	got := tasks.List()
	if len(got) != 1 || got[0].ID != "cloud-1" {
		t.Errorf("expected the remote collection to win, got %+v", got)
	}
}

func TestInitializeCloud_MigratesGuestData(t *testing.T) {
	// End-to-end: guest user adds a scheduled task, toggles its
	// auto-created step, signs in against an empty remote.
	tasks, remote, local := newTestTasks(t)
	ctx := context.Background()

	tasks.InitializeGuest()
	id, err := tasks.Add(ctx, schema.Task{Title: "Write report", ScheduledDate: "2024-06-01"})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	task, _ := tasks.Get(id)
	if len(task.Steps) != 1 {
		t.Fatalf("expected one auto-created step, got %d", len(task.Steps))
	}
	stepID := task.Steps[0].ID
	if err := tasks.ToggleStep(ctx, id, stepID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}

	// Guest data was uploaded write-through and adopted.
	if remote.saves != 1 {
		t.Errorf("expected exactly one migration upload, got %d", remote.saves)
	}
	got := tasks.List()
	if len(got) != 1 || got[0].Title != "Write report" {
		t.Fatalf("migrated tasks = %+v, want Write report", got)
	}
	if got[0].ScheduledDate != "2024-06-01" {
		t.Errorf("scheduledDate = %q, want 2024-06-01", got[0].ScheduledDate)
	}
	if got[0].Completed {
		t.Error("task itself should remain incomplete")
	}
	if !got[0].Steps[0].Completed {
		t.Error("toggled step state should survive the migration")
	}

	// Local storage is cleared once cloud mode owns the data.
	if _, ok := local.Read(KindTasks); ok {
		t.Error("local entry should be cleared after migration")
	}
}

func TestInitializeCloud_FetchFailureStillLandsInCloud(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	remote.failFetch = true

	err := tasks.InitializeCloud(context.Background())
	if err == nil {
		t.Fatal("expected fetch error")
	}

	snap := tasks.State()
	if snap.Mode != ModeCloud {
		t.Errorf("mode = %s, want cloud even after fetch failure", snap.Mode)
	}
	if snap.LastError == "" {
		t.Error("expected recorded error")
	}
}

func TestRefresh_RemoteWins(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	ctx := context.Background()

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}
	if _, err := tasks.Add(ctx, schema.Task{Title: "Stale local view"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// Another device replaced the record.
	remote.set(schema.TaskState{Tasks: []schema.Task{{ID: "other", Title: "From other device"}}})

	if err := tasks.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	got := tasks.List()
	if len(got) != 1 || got[0].ID != "other" {
		t.Errorf("refresh should replace the collection unconditionally, got %+v", got)
	}
}

func TestRefresh_NoOpInGuestMode(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)

	tasks.InitializeGuest()
	if err := tasks.Refresh(context.Background()); err != nil {
		t.Fatalf("guest refresh should be a silent no-op: %v", err)
	}
	if remote.fetches != 0 {
		t.Error("guest refresh must not touch the remote")
	}
}

func TestRefresh_SkippedWhileSaving(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	ctx := context.Background()

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}
	fetchesAfterInit := remote.fetches

	// Block the save so the engine stays in the saving state.
	gate := make(chan struct{})
	remote.mu.Lock()
	remote.saveGate = gate
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := tasks.Add(ctx, schema.Task{Title: "Slow save"})
		done <- err
	}()

	// Wait until the mutation has been applied optimistically.
	for len(tasks.List()) == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := tasks.Refresh(ctx); err != nil {
		t.Fatalf("refresh during save should be a no-op: %v", err)
	}
	if remote.fetches != fetchesAfterInit {
		t.Error("refresh must not fetch while a save is in flight")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestSubscribe_NotifiesAndUnsubscribes(t *testing.T) {
	tasks, _, _ := newTestTasks(t)
	ctx := context.Background()
	tasks.InitializeGuest()

	var got []Snapshot[schema.TaskState]
	cancel := tasks.Subscribe(func(s Snapshot[schema.TaskState]) {
		got = append(got, s)
	})

	if _, err := tasks.Add(ctx, schema.Task{Title: "Observed"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one notification")
	}
	last := got[len(got)-1]
	if len(last.Collection.Tasks) != 1 {
		t.Errorf("snapshot has %d tasks, want 1", len(last.Collection.Tasks))
	}

	cancel()
	n := len(got)
	if _, err := tasks.Add(ctx, schema.Task{Title: "Unobserved"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(got) != n {
		t.Error("listener fired after unsubscribe")
	}
}

func TestClearError(t *testing.T) {
	tasks, remote, _ := newTestTasks(t)
	ctx := context.Background()

	if err := tasks.InitializeCloud(ctx); err != nil {
		t.Fatalf("cloud init failed: %v", err)
	}
	remote.failSave = true
	if _, err := tasks.Add(ctx, schema.Task{Title: "Fails"}); err == nil {
		t.Fatal("expected save failure")
	}
	if tasks.State().LastError == "" {
		t.Fatal("expected recorded error")
	}

	tasks.ClearError()
	if tasks.State().LastError != "" {
		t.Error("error should clear")
	}
}

func TestInitializeGuest_AdoptsPersistedState(t *testing.T) {
	dir := t.TempDir()
	local := store.NewLocal(dir)
	logger := log.New(io.Discard, "", 0)

	first, err := NewTasks(&fakeRemote[schema.TaskState]{}, local, logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	first.InitializeGuest()
	if _, err := first.Add(context.Background(), schema.Task{Title: "Survives restart"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// A fresh engine over the same directory sees the guest data.
	second, err := NewTasks(&fakeRemote[schema.TaskState]{}, local, logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	second.InitializeGuest()

	got := second.List()
	if len(got) != 1 || got[0].Title != "Survives restart" {
		t.Errorf("restarted engine tasks = %+v, want the persisted task", got)
	}
}
