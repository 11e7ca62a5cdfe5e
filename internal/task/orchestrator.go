package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/events"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/store"
)

// Errors reported synchronously to callers of orchestrator operations.
var (
	// ErrTaskNotFound is returned when no task exists for the given ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNothingToDo is returned by CreateAndEnqueue when every submitted
	// locator was absorbed as a duplicate of active work.
	ErrNothingToDo = errors.New("all URLs are already in the queue")
)

// Config holds orchestrator tuning knobs.
type Config struct {
	// WorkerCount bounds how many downloads run concurrently.
	WorkerCount int

	// QueueSize is the dispatch channel buffer.
	QueueSize int
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		QueueSize:   100,
	}
}

// Statistics is a per-status task count, computed in one atomic pass.
type Statistics struct {
	Total        int `json:"total"`
	Queued       int `json:"queued"`
	Downloading  int `json:"downloading"`
	Converting   int `json:"converting"`
	Transcribing int `json:"transcribing"`
	Completed    int `json:"completed"`
	Failed       int `json:"failed"`
}

// Orchestrator owns task creation, dispatch, retry, cancellation and
// removal. A bounded pool of workers executes the per-task processing
// routine; every observable state change is published on the progress bus
// and followed by a whole-store snapshot save.
type Orchestrator struct {
	store       *store.TaskStore
	bus         *events.Bus
	persister   Persister
	fetcher     Fetcher
	transcriber Transcriber

	queue      chan *domain.DownloadTask
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	config Config
	logger *slog.Logger
}

// New creates an Orchestrator. The transcriber may be nil, in which case
// transcription requests are silently skipped.
func New(
	taskStore *store.TaskStore,
	bus *events.Bus,
	persister Persister,
	fetcher Fetcher,
	transcriber Transcriber,
	config Config,
	logger *slog.Logger,
) *Orchestrator {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		store:       taskStore,
		bus:         bus,
		persister:   persister,
		fetcher:     fetcher,
		transcriber: transcriber,
		queue:       make(chan *domain.DownloadTask, config.QueueSize),
		ctx:         ctx,
		cancelFunc:  cancel,
		config:      config,
		logger:      logger.With("component", "orchestrator"),
	}
}

// Start recovers persisted tasks and launches the worker pool.
func (o *Orchestrator) Start() error {
	if err := o.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < o.config.WorkerCount; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}

	o.logger.Info("orchestrator started",
		"worker_count", o.config.WorkerCount,
		"recovered_tasks", o.store.Len())
	return nil
}

// Stop shuts the worker pool down, waiting for in-flight tasks to finish.
func (o *Orchestrator) Stop() {
	o.cancelFunc()
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

// Recover populates the store from the durable snapshot. Tasks left in a
// mid-flight status by a crash are returned to Queued with all execution
// state cleared, including the completion timestamp a task interrupted
// during transcription already carried.
func (o *Orchestrator) Recover() error {
	snapshots, err := o.persister.Load()
	if err != nil {
		return err
	}

	reset := 0
	for id, snap := range snapshots {
		task, err := domain.TaskFromSnapshot(snap)
		if err != nil {
			// Load already validates entries; this is a second line of
			// defense against a persister that does not.
			o.logger.Warn("skipping unrecoverable task", "task_id", id, "error", err)
			continue
		}
		if task.Status().InFlight() {
			task.ResetForRequeue()
			reset++
		}
		o.store.Put(task)
	}

	if reset > 0 {
		o.logger.Info("reset interrupted tasks to queued", "count", reset)
	}
	return nil
}

// CreateAndEnqueue creates one task per locator and submits the batch to
// the worker pool. A locator that already has a non-Failed task in the
// store is silently absorbed. Returns ErrNothingToDo when the whole batch
// collapses to duplicates.
func (o *Orchestrator) CreateAndEnqueue(urls []string, format domain.Format, quality string, transcribe bool) ([]domain.TaskSnapshot, error) {
	var created []domain.TaskSnapshot
	for _, url := range urls {
		task, ok, err := o.store.CreateUnlessActive(url, format, quality, transcribe)
		if err != nil {
			return created, err
		}
		if !ok {
			o.logger.Info("task already active for URL, absorbing duplicate", "url", url)
			continue
		}

		o.logger.Info("created task",
			"task_id", task.ID(),
			"url", url,
			"format", format,
			"quality", quality,
			"transcription", transcribe)
		o.notify(task)
		created = append(created, task.Snapshot())
	}

	if len(created) == 0 {
		return nil, ErrNothingToDo
	}

	o.StartAllQueued()
	return created, nil
}

// StartAllQueued submits every currently-queued task to the worker pool
// and reports how many were dispatched. Dispatch acceptance is a
// compare-and-set on status, so calling this concurrently with itself or
// with an in-flight retry can never hand one task to two workers.
func (o *Orchestrator) StartAllQueued() int {
	queued := o.store.FilterByStatus(domain.StatusQueued)

	dispatched := 0
	for _, task := range queued {
		if o.dispatch(task) {
			dispatched++
		}
	}

	if dispatched > 0 {
		o.logger.Info("dispatched queued tasks", "count", dispatched)
	}
	return dispatched
}

// dispatch attempts to claim the task for processing. The status
// transition to Downloading is atomic with dispatch acceptance.
func (o *Orchestrator) dispatch(task *domain.DownloadTask) bool {
	if !task.CompareAndSwapStatus(domain.StatusQueued, domain.StatusDownloading) {
		return false
	}

	select {
	case o.queue <- task:
		return true
	default:
		// Queue full: release the claim so a later StartAllQueued picks
		// the task up again.
		task.CompareAndSwapStatus(domain.StatusDownloading, domain.StatusQueued)
		o.logger.Error("dispatch queue is full, task requeued",
			"task_id", task.ID(),
			"queue_cap", cap(o.queue))
		return false
	}
}

// Retry resets a failed task and resubmits it. Returns ErrTaskNotFound or
// domain.ErrInvalidTaskState; the task is left unchanged on rejection.
func (o *Orchestrator) Retry(id uuid.UUID) error {
	task, ok := o.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if err := task.ResetForRetry(); err != nil {
		return err
	}

	o.logger.Info("retrying task", "task_id", id)
	o.notify(task)
	o.dispatch(task)
	return nil
}

// Cancel fails a still-queued task with a user-cancellation message. A
// task already handed to a worker cannot be preempted. Returns
// ErrTaskNotFound or domain.ErrInvalidTaskState.
func (o *Orchestrator) Cancel(id uuid.UUID) error {
	task, ok := o.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if err := task.Cancel(); err != nil {
		return err
	}

	o.logger.Info("cancelled task", "task_id", id)
	o.notify(task)
	return nil
}

// Remove deletes the task regardless of status. An in-flight worker is not
// stopped; its later notifications target an absent entity and are
// dropped.
func (o *Orchestrator) Remove(id uuid.UUID) {
	o.store.Remove(id)
	o.logger.Info("removed task", "task_id", id)
	o.persist()
}

// ClearCompleted bulk-removes every completed task and reports the count.
func (o *Orchestrator) ClearCompleted() int {
	removed := o.store.RemoveAllWhere(func(t *domain.DownloadTask) bool {
		return t.Status() == domain.StatusCompleted
	})
	if removed > 0 {
		o.logger.Info("cleared completed tasks", "count", removed)
		o.persist()
	}
	return removed
}

// Statistics returns a per-status count over the current store.
func (o *Orchestrator) Statistics() Statistics {
	counts := o.store.CountByStatus()

	stats := Statistics{
		Queued:       counts[domain.StatusQueued],
		Downloading:  counts[domain.StatusDownloading],
		Converting:   counts[domain.StatusConverting],
		Transcribing: counts[domain.StatusTranscribing],
		Completed:    counts[domain.StatusCompleted],
		Failed:       counts[domain.StatusFailed],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats
}

// List returns a snapshot copy of every task.
func (o *Orchestrator) List() []domain.TaskSnapshot {
	tasks := o.store.List()
	snapshots := make([]domain.TaskSnapshot, 0, len(tasks))
	for _, task := range tasks {
		snapshots = append(snapshots, task.Snapshot())
	}
	return snapshots
}

// Get returns a snapshot of one task.
func (o *Orchestrator) Get(id uuid.UUID) (domain.TaskSnapshot, bool) {
	task, ok := o.store.Get(id)
	if !ok {
		return domain.TaskSnapshot{}, false
	}
	return task.Snapshot(), true
}

// DrainProgress empties and returns all pending progress events.
func (o *Orchestrator) DrainProgress() []events.Event {
	return o.bus.Drain()
}

// TranscriptionAvailable reports whether the transcription collaborator is
// present and usable.
func (o *Orchestrator) TranscriptionAvailable() bool {
	return o.transcriber != nil && o.transcriber.Available()
}

// worker consumes dispatched tasks until shutdown.
func (o *Orchestrator) worker(id int) {
	defer o.wg.Done()

	o.logger.Debug("starting worker", "worker_id", id)
	for {
		select {
		case <-o.ctx.Done():
			o.logger.Debug("stopping worker", "worker_id", id)
			return
		case task := <-o.queue:
			o.process(task, id)
		}
	}
}

// process drives one task through its phases. Any failure lands in the
// task's Failed state; nothing escapes to terminate the worker.
func (o *Orchestrator) process(task *domain.DownloadTask, workerID int) {
	logger := o.logger.With("task_id", task.ID(), "worker_id", workerID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task processing panicked", "panic", r)
			task.SetStatus(domain.StatusFailed, fmt.Sprintf("internal error: %v", r))
			o.notify(task)
		}
	}()

	// Status is already Downloading: the dispatch CAS set it.
	logger.Info("processing task", "url", task.URL())
	o.notify(task)

	onProgress := func(update ProgressUpdate) {
		if update.PostProcessing {
			task.SetStatus(domain.StatusConverting, "")
		} else {
			task.UpdateProgress(update.Percent, update.Speed, update.ETA)
		}
		o.notify(task)
	}

	if err := o.fetcher.Fetch(o.ctx, task, onProgress); err != nil {
		logger.Error("download failed", "error", err)
		task.SetStatus(domain.StatusFailed, err.Error())
		o.notify(task)
		return
	}

	if task.TranscriptionEnabled() && o.TranscriptionAvailable() {
		o.transcribe(task, logger)
	}

	o.notify(task)
	logger.Info("task completed", "filename", task.Filename())
}

// transcribe runs the best-effort transcription phase. Failure never
// downgrades a completed download: the task returns to Completed with
// empty transcription text and no error recorded.
func (o *Orchestrator) transcribe(task *domain.DownloadTask, logger *slog.Logger) {
	logger.Info("starting transcription")
	task.SetStatus(domain.StatusTranscribing, "")
	o.notify(task)

	onProgress := func(update ProgressUpdate) {
		task.UpdateProgress(update.Percent, update.Speed, update.ETA)
		o.notify(task)
	}

	text, err := o.transcriber.Transcribe(o.ctx, task, onProgress)
	if err != nil {
		logger.Warn("transcription failed, keeping download result", "error", err)
	} else {
		task.SetTranscription(text)
	}

	task.SetStatus(domain.StatusCompleted, "")
	o.notify(task)
}

// notify publishes the task's current snapshot and saves the whole store.
// Notifications for a task no longer in the store are dropped. The
// membership check and the publish are not atomic: a Remove landing between
// them lets one last event through, which pollers cannot tell apart from
// the events the task queued before its removal.
func (o *Orchestrator) notify(task *domain.DownloadTask) {
	if _, ok := o.store.Get(task.ID()); !ok {
		o.logger.Debug("dropping notification for removed task", "task_id", task.ID())
		return
	}
	o.bus.Publish(task.Snapshot())
	o.persist()
}

// persist saves the store snapshot. Persistence errors are logged, never
// propagated: a failed save only risks durability until the next one.
func (o *Orchestrator) persist() {
	if err := o.persister.Save(o.store.Snapshots()); err != nil {
		o.logger.Error("failed to save task snapshot", "error", err)
	}
}
