// Package daemon provides the background refresher that keeps cloud
// collections current while the CLI sits idle.
//
// The daemon:
// 1. Watches the state directory for focus signals from other processes
// 2. Debounces signal bursts into single refresh passes
// 3. Periodically refreshes on a coarse interval as a fallback
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FocusFile is the touch-file inside the state directory that signals
// a refresh. Another fd process (or the desktop shell) touches it when
// the workspace regains focus, mirroring a browser tab's focus event.
const FocusFile = "focus"

// Refresher pulls a collection's remote record. Implemented by the
// entity engines.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Config holds configuration for the daemon.
type Config struct {
	// RefreshInterval is how often to refresh without a focus signal.
	RefreshInterval time.Duration

	// DebounceInterval is how long to wait after a focus signal before
	// refreshing. This batches rapid signal bursts together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:  5 * time.Minute,
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches for focus signals and refreshes the registered
// collections from their remote records.
type Daemon struct {
	stateDir   string
	refreshers map[string]Refresher
	config     *Config

	watcher    *fsnotify.Watcher
	signaledAt time.Time
	signaled   bool
	signaledMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon refreshing the given collections. Keys are used
// only for logging. Use Start() to begin watching and refreshing.
func New(stateDir string, refreshers map[string]Refresher) (*Daemon, error) {
	return NewWithConfig(stateDir, refreshers, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(stateDir string, refreshers map[string]Refresher, config *Config) (*Daemon, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("stateDir cannot be empty")
	}
	if len(refreshers) == 0 {
		return nil, fmt.Errorf("at least one refresher is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		stateDir:   stateDir,
		refreshers: refreshers,
		config:     config,
		watcher:    watcher,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon performs one initial refresh, then watches the state
// directory for focus signals and ticks on the fallback interval.
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting refresher")

	if err := os.MkdirAll(d.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := d.watcher.Add(d.stateDir); err != nil {
		return fmt.Errorf("failed to watch state directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.stateDir)

	d.refreshAll(ctx)

	d.wg.Add(3)
	go d.watchFocusSignals()
	go d.processSignals()
	go d.intervalRefresh()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping refresher")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Refresher stopped")
	return nil
}

// Touch signals a refresh to any daemon watching stateDir.
func Touch(stateDir string) error {
	path := filepath.Join(stateDir, FocusFile)
	now := time.Now()
	if err := os.Chtimes(path, now, now); err == nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to touch focus file: %w", err)
	}
	return f.Close()
}

// watchFocusSignals monitors filesystem events and records signals.
func (d *Daemon) watchFocusSignals() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != FocusFile {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) == 0 {
				continue
			}
			d.signal()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// signal records a pending focus signal with its arrival time.
func (d *Daemon) signal() {
	d.signaledMu.Lock()
	defer d.signaledMu.Unlock()
	d.signaled = true
	d.signaledAt = time.Now()
}

// processSignals turns debounced focus signals into refresh passes.
func (d *Daemon) processSignals() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.signaledMu.Lock()
			ready := d.signaled && time.Since(d.signaledAt) >= d.config.DebounceInterval
			if ready {
				d.signaled = false
			}
			d.signaledMu.Unlock()

			if ready {
				d.config.Logger.Println("Focus signal received")
				d.refreshAll(d.ctx)
			}
		}
	}
}

// intervalRefresh is the coarse fallback for missed signals.
func (d *Daemon) intervalRefresh() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.refreshAll(d.ctx)
		}
	}
}

// refreshAll refreshes every registered collection. Failures are
// logged, never fatal; the next signal or tick tries again.
func (d *Daemon) refreshAll(ctx context.Context) {
	for key, r := range d.refreshers {
		if err := r.Refresh(ctx); err != nil {
			d.config.Logger.Printf("Warning: failed to refresh %s: %v", key, err)
		}
	}
}
