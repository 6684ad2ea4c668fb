// Package engine implements the client state synchronization engine.
//
// Each collection (tasks, plan, habits) is owned by exactly one Engine:
// the in-memory collection is canonical, every read is a projection of it,
// and every write goes through Mutate, which applies the change
// optimistically and rolls it back if remote persistence fails.
//
// An engine operates in one of two steady modes:
//   - guest: no remote identity; the collection persists only to the
//     device-local store, via a subscriber attached at construction
//   - cloud: an authenticated identity exists; the collection persists
//     to the per-user remote record, and local storage is suppressed
//
// Mode transitions go through loading during InitializeCloud, which also
// migrates any guest-mode data up to the remote record.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// Mode is the engine's operating mode.
type Mode string

const (
	// ModeLoading is the transient state during cloud initialization.
	ModeLoading Mode = "loading"
	// ModeGuest persists the collection only to device-local storage.
	ModeGuest Mode = "guest"
	// ModeCloud persists the collection to the per-user remote record.
	ModeCloud Mode = "cloud"
)

// Remote is the per-user record contract the engine saves through.
// Fetch distinguishes "no row yet" (ok=false, nil error) from genuine
// failures. Implemented by remote.Collection.
type Remote[C any] interface {
	Fetch(ctx context.Context) (C, bool, error)
	Save(ctx context.Context, collection C) error
}

// LocalStore is the device-local key/value contract. Write is expected
// to gate persistence on the mode tag embedded in the envelope.
// Implemented by store.Local.
type LocalStore interface {
	Write(key string, data []byte) error
	Read(key string) ([]byte, bool)
	Delete(key string) error
}

// Snapshot is an immutable view of engine state delivered to readers
// and subscribers. Collection is a deep copy; mutating it never affects
// the canonical state.
type Snapshot[C any] struct {
	Mode       Mode
	Collection C
	Saving     bool
	LastError  string
}

// Listener receives a snapshot after every state change.
type Listener[C any] func(Snapshot[C])

// Config configures an Engine.
type Config[C any] struct {
	// Key is the local-storage key for this collection (e.g. "tasks").
	Key string

	// Remote is the per-user record view. May be nil for deployments
	// that never leave guest mode.
	Remote Remote[C]

	// Local is the device-local store. Required.
	Local LocalStore

	// Clone deep-copies a collection. Required: Mutate snapshots the
	// pre-mutation collection through it for rollback.
	Clone func(C) C

	// IsEmpty reports whether a collection holds no data. Required:
	// InitializeCloud uses it to decide whether the remote record wins
	// over migrated guest data.
	IsEmpty func(C) bool

	// Logger for engine activity. Nil means a default stderr logger.
	Logger *log.Logger
}

// Engine owns one canonical collection and synchronizes it between
// device-local storage (guest mode) and the remote record (cloud mode).
type Engine[C any] struct {
	key     string
	remote  Remote[C]
	local   LocalStore
	clone   func(C) C
	isEmpty func(C) bool
	logger  *log.Logger

	mu         sync.Mutex
	mode       Mode
	collection C
	saving     bool
	lastErr    string

	subMu     sync.Mutex
	listeners map[int]Listener[C]
	nextSub   int
}

// New creates an engine in loading mode. Call InitializeGuest or
// InitializeCloud before mutating.
func New[C any](cfg Config[C]) (*Engine[C], error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if cfg.Local == nil {
		return nil, fmt.Errorf("local store cannot be nil")
	}
	if cfg.Clone == nil {
		return nil, fmt.Errorf("clone function cannot be nil")
	}
	if cfg.IsEmpty == nil {
		return nil, fmt.Errorf("isEmpty function cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}

	e := &Engine[C]{
		key:       cfg.Key,
		remote:    cfg.Remote,
		local:     cfg.Local,
		clone:     cfg.Clone,
		isEmpty:   cfg.IsEmpty,
		logger:    logger,
		mode:      ModeLoading,
		listeners: make(map[int]Listener[C]),
	}

	// Local persistence rides the subscription like any other observer.
	// The local store's own mode gate decides whether the write sticks.
	e.Subscribe(e.persist)

	return e, nil
}

// Subscribe registers a listener called synchronously after every state
// change. The returned function removes the listener.
func (e *Engine[C]) Subscribe(fn Listener[C]) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.listeners, id)
	}
}

// State returns a snapshot of the current engine state.
func (e *Engine[C]) State() Snapshot[C] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Mode returns the current operating mode.
func (e *Engine[C]) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// InitializeGuest enters guest mode, adopting any collection persisted
// in the device-local store. No remote calls are made.
func (e *Engine[C]) InitializeGuest() {
	var adopted C
	if data, ok := e.local.Read(e.key); ok {
		if err := schema.DecodeEnvelope(data, &adopted); err != nil {
			// Corrupt local state reads as empty; never fatal.
			e.logger.Printf("discarding unreadable local %s state: %v", e.key, err)
			var zero C
			adopted = zero
		}
	}

	e.mu.Lock()
	e.mode = ModeGuest
	e.collection = adopted
	e.lastErr = ""
	e.mu.Unlock()

	e.logger.Printf("initialized %s in guest mode", e.key)
	e.notify()
}

// InitializeCloud enters cloud mode for an authenticated identity.
//
// Any guest-mode collection in local storage is read first and the
// local entry cleared. If the remote record is non-empty it wins;
// otherwise the guest data (if any) is uploaded as the initial record.
// A remote failure still lands the engine in cloud mode with the error
// recorded, so the caller is never stranded in loading.
func (e *Engine[C]) InitializeCloud(ctx context.Context) error {
	if e.remote == nil {
		return fmt.Errorf("no remote configured for %s", e.key)
	}

	// Read guest data before announcing the mode change: the first
	// loading-mode persist clears the local entry.
	var guest C
	hadGuest := false
	if data, ok := e.local.Read(e.key); ok {
		if err := schema.DecodeEnvelope(data, &guest); err != nil {
			e.logger.Printf("discarding unreadable local %s state: %v", e.key, err)
		} else {
			hadGuest = !e.isEmpty(guest)
		}
	}

	e.mu.Lock()
	e.mode = ModeLoading
	e.mu.Unlock()
	e.notify()

	adopted, found, err := e.remote.Fetch(ctx)
	if err != nil {
		// Optimistic about connectivity: the identity is valid, so land
		// in cloud mode with the last-known collection and record the
		// error instead of blocking in loading forever.
		e.mu.Lock()
		e.mode = ModeCloud
		e.lastErr = err.Error()
		e.mu.Unlock()
		e.logger.Printf("cloud init for %s: fetch failed: %v", e.key, err)
		e.notify()
		return fmt.Errorf("failed to fetch %s collection: %w", e.key, err)
	}

	var saveErr error
	switch {
	case found && !e.isEmpty(adopted):
		// Remote record wins.
	case hadGuest:
		// Migrate guest data up: write-through, then adopt it.
		adopted = guest
		saveErr = e.remote.Save(ctx, guest)
	default:
		var zero C
		adopted = zero
	}

	e.mu.Lock()
	e.mode = ModeCloud
	e.collection = adopted
	if saveErr != nil {
		e.lastErr = saveErr.Error()
	} else {
		e.lastErr = ""
	}
	e.mu.Unlock()
	e.notify()

	if saveErr != nil {
		e.logger.Printf("cloud init for %s: guest migration upload failed: %v", e.key, saveErr)
		return fmt.Errorf("failed to upload migrated %s collection: %w", e.key, saveErr)
	}

	e.logger.Printf("initialized %s in cloud mode (remote=%v migrated=%v)", e.key, found, hadGuest)
	return nil
}

// Refresh replaces the collection with the remote record. Remote wins
// unconditionally; there is no merge.
//
// Refresh is a no-op unless the engine is in cloud mode and not
// currently saving — a coarse guard against clobbering an in-flight
// write with a stale read, not a true lock.
func (e *Engine[C]) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.mode != ModeCloud || e.saving {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	adopted, found, err := e.remote.Fetch(ctx)
	if err != nil {
		e.mu.Lock()
		e.lastErr = err.Error()
		e.mu.Unlock()
		e.notify()
		return fmt.Errorf("failed to refresh %s collection: %w", e.key, err)
	}
	if !found {
		var zero C
		adopted = zero
	}

	e.mu.Lock()
	// Re-check: a save may have started while the fetch was in flight.
	if e.mode != ModeCloud || e.saving {
		e.mu.Unlock()
		return nil
	}
	e.collection = adopted
	e.lastErr = ""
	e.mu.Unlock()
	e.notify()
	return nil
}

// Mutate applies an optimistic transactional mutation.
//
// The op receives a deep copy of the current collection and returns the
// replacement (or an error, which aborts with no state change). The
// result is applied immediately; in cloud mode the whole collection is
// then upserted to the remote record, and on failure the pre-mutation
// snapshot — including any selection state inside it — is restored.
func (e *Engine[C]) Mutate(ctx context.Context, op func(C) (C, error)) error {
	e.mu.Lock()
	if e.mode == ModeLoading {
		e.mu.Unlock()
		return fmt.Errorf("cannot mutate %s while loading", e.key)
	}

	prev := e.clone(e.collection)
	next, err := op(e.clone(e.collection))
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.collection = next
	mode := e.mode
	if mode == ModeCloud {
		e.saving = true
	}
	e.mu.Unlock()
	e.notify()

	if mode != ModeCloud {
		return nil
	}

	saveErr := e.remote.Save(ctx, next)

	e.mu.Lock()
	e.saving = false
	if saveErr != nil {
		e.collection = prev
		e.lastErr = saveErr.Error()
	} else {
		e.lastErr = ""
	}
	e.mu.Unlock()
	e.notify()

	if saveErr != nil {
		e.logger.Printf("mutation of %s rolled back: %v", e.key, saveErr)
		return fmt.Errorf("failed to save %s collection (changes rolled back): %w", e.key, saveErr)
	}
	return nil
}

// ClearError discards the recorded error string.
func (e *Engine[C]) ClearError() {
	e.mu.Lock()
	e.lastErr = ""
	e.mu.Unlock()
	e.notify()
}

// snapshotLocked builds a snapshot; e.mu must be held.
func (e *Engine[C]) snapshotLocked() Snapshot[C] {
	return Snapshot[C]{
		Mode:       e.mode,
		Collection: e.clone(e.collection),
		Saving:     e.saving,
		LastError:  e.lastErr,
	}
}

// notify delivers the current snapshot to all listeners.
func (e *Engine[C]) notify() {
	e.mu.Lock()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.subMu.Lock()
	fns := make([]Listener[C], 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// persist is the built-in subscriber that mirrors state to the local
// store. The store's envelope mode gate decides whether the entry is
// written (guest) or cleared (loading/cloud).
func (e *Engine[C]) persist(s Snapshot[C]) {
	data, err := schema.EncodeEnvelope(string(s.Mode), s.Collection)
	if err != nil {
		e.logger.Printf("failed to encode %s envelope: %v", e.key, err)
		return
	}
	if err := e.local.Write(e.key, data); err != nil {
		e.logger.Printf("failed to persist %s locally: %v", e.key, err)
	}
}
