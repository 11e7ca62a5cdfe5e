package task

import (
	"context"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
)

// ProgressUpdate is one incremental report from a collaborator.
type ProgressUpdate struct {
	// Percent is the phase-local progress in [0,100].
	Percent float64

	// Speed and ETA are human-readable display strings.
	Speed string
	ETA   string

	// PostProcessing signals that the output format differs from the
	// source and conversion has started. Advisory only: the fetcher alone
	// decides final completion.
	PostProcessing bool
}

// ProgressFunc receives incremental collaborator progress.
type ProgressFunc func(update ProgressUpdate)

// Fetcher acquires the requested artifact for a task. On success it must
// set the task's title and final output filename and transition the task
// to Completed after confirming the output file exists on disk. On failure
// it returns a descriptive error. Implementations receive a mutable task
// but must not retain it beyond the call.
type Fetcher interface {
	Fetch(ctx context.Context, task *domain.DownloadTask, onProgress ProgressFunc) error
}

// Transcriber derives text from a completed artifact. It operates only on
// tasks whose status is already Completed and whose filename is set, and
// never mutates status itself.
type Transcriber interface {
	// Available reports whether transcription can be performed at all.
	Available() bool

	// Transcribe returns the transcription text for the task's output file.
	Transcribe(ctx context.Context, task *domain.DownloadTask, onProgress ProgressFunc) (string, error)
}

// Persister is the durable snapshot contract consumed by the orchestrator.
type Persister interface {
	Save(tasks map[string]domain.TaskSnapshot) error
	Load() (map[string]domain.TaskSnapshot, error)
}
