package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
)

// TaskStore is a thread-safe collection of download tasks keyed by
// identifier. The lock guards only the map itself: it is held for the
// duration of structural mutations, never across collaborator calls.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.DownloadTask
}

// NewTaskStore creates an empty task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[uuid.UUID]*domain.DownloadTask),
	}
}

// Create allocates a new task in the Queued state and inserts it
// atomically.
func (s *TaskStore) Create(url string, format domain.Format, quality string, transcribe bool) (*domain.DownloadTask, error) {
	task, err := domain.NewDownloadTask(url, format, quality, transcribe)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID()] = task
	return task, nil
}

// CreateUnlessActive creates a new task for url unless the store already
// holds a task for the same locator whose status is not Failed. The check
// and the insert happen under one lock hold, so two concurrent submissions
// of the same locator can never both create a task. The second return value
// reports whether a task was created.
func (s *TaskStore) CreateUnlessActive(url string, format domain.Format, quality string, transcribe bool) (*domain.DownloadTask, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tasks {
		if existing.URL() == url && existing.Status() != domain.StatusFailed {
			return existing, false, nil
		}
	}

	task, err := domain.NewDownloadTask(url, format, quality, transcribe)
	if err != nil {
		return nil, false, err
	}
	s.tasks[task.ID()] = task
	return task, true, nil
}

// Put inserts an already-constructed task, replacing any entry with the
// same identifier. Used when reloading the persisted snapshot at startup.
func (s *TaskStore) Put(task *domain.DownloadTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID()] = task
}

// Get returns the task with the given identifier.
func (s *TaskStore) Get(id uuid.UUID) (*domain.DownloadTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	return task, ok
}

// List returns a copy of the current task set, safe to iterate without
// holding the store lock. Ordering is not guaranteed.
func (s *TaskStore) List() []*domain.DownloadTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*domain.DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// FilterByStatus returns all tasks currently in the given status.
func (s *TaskStore) FilterByStatus(status domain.Status) []*domain.DownloadTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []*domain.DownloadTask
	for _, task := range s.tasks {
		if task.Status() == status {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Remove deletes the task with the given identifier. No-op if absent.
func (s *TaskStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// RemoveAllWhere deletes every task for which pred returns true and
// reports how many were removed.
func (s *TaskStore) RemoveAllWhere(pred func(*domain.DownloadTask) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, task := range s.tasks {
		if pred(task) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tasks currently held.
func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// CountByStatus tallies tasks per status in one atomic pass.
func (s *TaskStore) CountByStatus() map[domain.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[domain.Status]int)
	for _, task := range s.tasks {
		counts[task.Status()]++
	}
	return counts
}

// Snapshots serializes the entire store into the durable snapshot mapping.
func (s *TaskStore) Snapshots() map[string]domain.TaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots := make(map[string]domain.TaskSnapshot, len(s.tasks))
	for id, task := range s.tasks {
		snapshots[id.String()] = task.Snapshot()
	}
	return snapshots
}
