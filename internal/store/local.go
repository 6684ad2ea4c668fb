// Package store provides the device-local persistence adapter.
//
// Each collection is stored as one JSON envelope file under the state
// directory (e.g. tasks.json, plan.json, habits.json). Persistence is
// gated on the mode tag embedded in the envelope: only guest-mode state
// is ever written to disk. Writing cloud-mode state deletes any existing
// entry instead, so cloud data is never duplicated locally and stale
// guest data cannot resurface after a sign-in/sign-out cycle.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// ModeGuest is the envelope mode tag that permits local persistence.
const ModeGuest = "guest"

// Local is a file-backed key/value store scoped to a state directory.
type Local struct {
	dir string
}

// NewLocal creates a store rooted at dir. The directory is created on
// first write, not here, so a read-only status command never mutates
// the filesystem.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Dir returns the state directory this store writes under.
func (l *Local) Dir() string {
	return l.dir
}

// Write persists an encoded envelope under key, but only if the
// envelope's embedded mode tag is guest. Any other mode (or an
// unparseable envelope) deletes the existing entry for the key.
func (l *Local) Write(key string, data []byte) error {
	mode, err := schema.PeekMode(data)
	if err != nil || mode != ModeGuest {
		return l.Delete(key)
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Atomic write: temp file in the same directory, then rename.
	path := l.path(key)
	tmp, err := os.CreateTemp(l.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Read returns the stored envelope for key, or (nil, false) if absent.
//
// A stored entry whose mode tag is not guest, or which cannot be parsed
// at all, is treated as absent and the entry is cleared. Corruption is
// never surfaced to the caller as an error.
func (l *Local) Read(key string) ([]byte, bool) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		return nil, false
	}

	mode, err := schema.PeekMode(data)
	if err != nil || mode != ModeGuest {
		_ = l.Delete(key)
		return nil, false
	}
	return data, true
}

// Delete removes the entry for key. Missing entries are not an error.
func (l *Local) Delete(key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state entry %s: %w", key, err)
	}
	return nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.dir, key+".json")
}
