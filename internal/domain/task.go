package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a download task.
type Status string

// Possible task status values. The string forms are part of the durable
// snapshot contract and must not change.
const (
	StatusQueued       Status = "Queued"
	StatusDownloading  Status = "Downloading"
	StatusConverting   Status = "Converting"
	StatusTranscribing Status = "Transcribing"
	StatusCompleted    Status = "Completed"
	StatusFailed       Status = "Failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusDownloading, StatusConverting,
		StatusTranscribing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// InFlight reports whether s indicates a task currently being driven by a
// worker. Tasks found in one of these states on startup were interrupted by
// a crash and are reset to Queued.
func (s Status) InFlight() bool {
	return s == StatusDownloading || s == StatusConverting || s == StatusTranscribing
}

// Format is the requested output kind for a download.
type Format string

// Supported download formats.
const (
	FormatMP3 Format = "mp3"
	FormatMP4 Format = "mp4"
)

// ParseFormat converts a raw string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMP3:
		return FormatMP3, nil
	case FormatMP4:
		return FormatMP4, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// DownloadTask is one unit of requested work and its current lifecycle
// state. Identity and creation attributes are immutable; all mutable fields
// are guarded by the task's own mutex so that the single worker driving the
// task never races with concurrent readers (listing, persistence, API).
type DownloadTask struct {
	id         uuid.UUID
	url        string
	format     Format
	quality    string
	transcribe bool
	createdAt  time.Time

	mu            sync.Mutex
	status        Status
	progress      float64
	speed         string
	eta           string
	title         string
	filename      string
	errorMessage  string
	transcription string
	completedAt   *time.Time
	metadata      map[string]string
}

// NewDownloadTask creates a new task in the Queued state with a freshly
// allocated identifier.
func NewDownloadTask(url string, format Format, quality string, transcribe bool) (*DownloadTask, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	return &DownloadTask{
		id:         uuid.New(),
		url:        url,
		format:     format,
		quality:    quality,
		transcribe: transcribe,
		createdAt:  time.Now().UTC(),
		status:     StatusQueued,
		metadata:   make(map[string]string),
	}, nil
}

// ID returns the task's unique identifier.
func (t *DownloadTask) ID() uuid.UUID { return t.id }

// URL returns the source locator the task was created for.
func (t *DownloadTask) URL() string { return t.url }

// Format returns the requested output format.
func (t *DownloadTask) Format() Format { return t.format }

// Quality returns the requested quality tier.
func (t *DownloadTask) Quality() string { return t.quality }

// TranscriptionEnabled reports whether transcription was requested.
func (t *DownloadTask) TranscriptionEnabled() bool { return t.transcribe }

// CreatedAt returns the task's creation timestamp.
func (t *DownloadTask) CreatedAt() time.Time { return t.createdAt }

// Status returns the current lifecycle status.
func (t *DownloadTask) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Progress returns the current progress percentage.
func (t *DownloadTask) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Title returns the resolved media title.
func (t *DownloadTask) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// Filename returns the resolved output filename.
func (t *DownloadTask) Filename() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filename
}

// ErrorMessage returns the last recorded error message.
func (t *DownloadTask) ErrorMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errorMessage
}

// Transcription returns the transcription text, if any.
func (t *DownloadTask) Transcription() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transcription
}

// CompletedAt returns the completion timestamp, or nil if the task has not
// completed.
func (t *DownloadTask) CompletedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completedAt == nil {
		return nil
	}
	at := *t.completedAt
	return &at
}

// UpdateProgress records a progress report for the current phase. Progress
// is clamped to [0,100]; speed and eta are free-form display strings.
func (t *DownloadTask) UpdateProgress(progress float64, speed, eta string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = progress
	t.speed = speed
	t.eta = eta
}

// SetStatus transitions the task to the given status. Entering Completed
// forces progress to 100 and sets the completion timestamp exactly once;
// it is never set for Failed. A non-empty errorMessage is recorded as the
// task's error.
func (t *DownloadTask) SetStatus(status Status, errorMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setStatusLocked(status, errorMessage)
}

func (t *DownloadTask) setStatusLocked(status Status, errorMessage string) {
	t.status = status
	if errorMessage != "" {
		t.errorMessage = errorMessage
	}
	if status == StatusCompleted {
		t.progress = 100
		if t.completedAt == nil {
			now := time.Now().UTC()
			t.completedAt = &now
		}
	}
}

// CompareAndSwapStatus atomically transitions the task from one status to
// another. It returns false, leaving the task unchanged, if the current
// status is not the expected one. This is the dispatch guard that prevents
// the same task from ever being handed to two workers.
func (t *DownloadTask) CompareAndSwapStatus(from, to Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != from {
		return false
	}
	t.setStatusLocked(to, "")
	return true
}

// Cancel marks a still-queued task as failed with a user-cancellation
// message. Returns ErrInvalidTaskState if the task is no longer queued.
func (t *DownloadTask) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusQueued {
		return fmt.Errorf("%w: cannot cancel task in status %s", ErrInvalidTaskState, t.status)
	}
	t.status = StatusFailed
	t.errorMessage = "Cancelled by user"
	return nil
}

// ResetForRetry returns a failed task to the Queued state, clearing
// progress, speed, eta, error message and filename. Returns
// ErrInvalidTaskState if the task has not failed.
func (t *DownloadTask) ResetForRetry() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusFailed {
		return fmt.Errorf("%w: cannot retry task in status %s", ErrInvalidTaskState, t.status)
	}
	t.status = StatusQueued
	t.progress = 0
	t.speed = ""
	t.eta = ""
	t.errorMessage = ""
	t.filename = ""
	return nil
}

// ResetForRequeue returns an interrupted task to the Queued state as if it
// had never run. Unlike ResetForRetry it accepts any starting status and
// also clears the transcription text and the completion timestamp: a task
// interrupted mid-transcription was persisted as Completed-then-Transcribing
// and must not carry a completion timestamp back into the queue.
func (t *DownloadTask) ResetForRequeue() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusQueued
	t.progress = 0
	t.speed = ""
	t.eta = ""
	t.errorMessage = ""
	t.filename = ""
	t.transcription = ""
	t.completedAt = nil
}

// SetMetadata records the resolved title and/or output filename. Empty
// arguments leave the corresponding field untouched.
func (t *DownloadTask) SetMetadata(title, filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if title != "" {
		t.title = title
	}
	if filename != "" {
		t.filename = filename
	}
}

// SetTranscription attaches transcription text to the task.
func (t *DownloadTask) SetTranscription(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transcription = text
}

// PutMetadata stores a free-form key/value pair on the task.
func (t *DownloadTask) PutMetadata(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metadata[key] = value
}

// Snapshot returns an immutable point-in-time copy of the task, suitable
// for publishing on the progress bus or writing to the durable snapshot.
func (t *DownloadTask) Snapshot() TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	var completedAt *time.Time
	if t.completedAt != nil {
		at := *t.completedAt
		completedAt = &at
	}

	metadata := make(map[string]string, len(t.metadata))
	for k, v := range t.metadata {
		metadata[k] = v
	}

	return TaskSnapshot{
		ID:            t.id.String(),
		URL:           t.url,
		Format:        string(t.format),
		Quality:       t.quality,
		Transcribe:    t.transcribe,
		Status:        t.status,
		Progress:      t.progress,
		Speed:         t.speed,
		ETA:           t.eta,
		Title:         t.title,
		Filename:      t.filename,
		ErrorMessage:  t.errorMessage,
		Transcription: t.transcription,
		CreatedAt:     t.createdAt,
		CompletedAt:   completedAt,
		Metadata:      metadata,
	}
}

// TaskSnapshot is the serialized form of a DownloadTask. The JSON field
// names are a durable contract: the persisted snapshot file is read
// directly by external tooling.
type TaskSnapshot struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Format        string            `json:"format"`
	Quality       string            `json:"quality"`
	Transcribe    bool              `json:"transcription_enabled"`
	Status        Status            `json:"status"`
	Progress      float64           `json:"progress"`
	Speed         string            `json:"speed"`
	ETA           string            `json:"eta"`
	Title         string            `json:"title"`
	Filename      string            `json:"filename"`
	ErrorMessage  string            `json:"error_message"`
	Transcription string            `json:"transcription"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at"`
	Metadata      map[string]string `json:"metadata"`
}

// TaskFromSnapshot reconstructs a DownloadTask from its serialized form.
// Returns an error if the identifier, format or status cannot be parsed;
// the caller decides whether to skip or abort.
func TaskFromSnapshot(s TaskSnapshot) (*DownloadTask, error) {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTaskID, s.ID)
	}

	format, err := ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}

	if !s.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}

	if s.URL == "" {
		return nil, ErrEmptyURL
	}

	var completedAt *time.Time
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		completedAt = &at
	}

	metadata := make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		metadata[k] = v
	}

	return &DownloadTask{
		id:            id,
		url:           s.URL,
		format:        format,
		quality:       s.Quality,
		transcribe:    s.Transcribe,
		createdAt:     s.CreatedAt,
		status:        s.Status,
		progress:      s.Progress,
		speed:         s.Speed,
		eta:           s.ETA,
		title:         s.Title,
		filename:      s.Filename,
		errorMessage:  s.ErrorMessage,
		transcription: s.Transcription,
		completedAt:   completedAt,
		metadata:      metadata,
	}, nil
}
