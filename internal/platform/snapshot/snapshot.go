// Package snapshot persists the task store as a single JSON file. Every
// save rewrites the whole snapshot; the write goes to a temp file in the
// same directory and is renamed over the target so a reader never observes
// a partially-written file.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
)

// FileStore reads and writes the durable task snapshot.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a snapshot store backed by the file at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With("component", "snapshot_store"),
	}
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string { return f.path }

// Save serializes the entire task mapping and atomically replaces the
// snapshot file.
func (f *FileStore) Save(tasks map[string]domain.TaskSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(tasks)
}

func (f *FileStore) saveLocked(tasks map[string]domain.TaskSnapshot) error {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize tasks: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file back into a task mapping. A missing file
// yields an empty mapping. Entries that fail to deserialize or validate
// are individually skipped and logged; they never abort the whole load.
func (f *FileStore) Load() (map[string]domain.TaskSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *FileStore) loadLocked() (map[string]domain.TaskSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]domain.TaskSnapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	tasks := make(map[string]domain.TaskSnapshot, len(raw))
	for id, entry := range raw {
		var snap domain.TaskSnapshot
		if err := json.Unmarshal(entry, &snap); err != nil {
			f.logger.Warn("skipping undecodable snapshot entry", "task_id", id, "error", err)
			continue
		}
		// Reconstruct once to validate identifier, format and status.
		if _, err := domain.TaskFromSnapshot(snap); err != nil {
			f.logger.Warn("skipping invalid snapshot entry", "task_id", id, "error", err)
			continue
		}
		tasks[id] = snap
	}

	f.logger.Info("loaded task snapshot", "task_count", len(tasks), "path", f.path)
	return tasks, nil
}

// PruneOlderThan removes Completed entries whose creation timestamp is
// older than maxAge and rewrites the snapshot if anything was dropped.
// It reports the number of entries removed. Not invoked automatically by
// the orchestrator; an external scheduler calls it periodically. The lock
// is held across the whole read-modify-write so a concurrent Save can
// never be overwritten with the pre-save contents.
func (f *FileStore) PruneOlderThan(maxAge time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks, err := f.loadLocked()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, snap := range tasks {
		if snap.Status == domain.StatusCompleted && snap.CreatedAt.Before(cutoff) {
			delete(tasks, id)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if err := f.saveLocked(tasks); err != nil {
		return 0, err
	}
	f.logger.Info("pruned old completed tasks", "removed", removed)
	return removed, nil
}
