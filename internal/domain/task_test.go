package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDownloadTask(t *testing.T) {
	t.Parallel()

	t.Run("valid task", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", true)
		require.NoError(t, err)

		assert.NotEqual(t, "", task.ID().String())
		assert.Equal(t, StatusQueued, task.Status())
		assert.Equal(t, float64(0), task.Progress())
		assert.True(t, task.TranscriptionEnabled())
		assert.Nil(t, task.CompletedAt())
		assert.False(t, task.CreatedAt().IsZero())
	})

	t.Run("unique identifiers", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
			require.NoError(t, err)
			id := task.ID().String()
			assert.False(t, seen[id], "identifier %s allocated twice", id)
			seen[id] = true
		}
	})

	t.Run("empty URL rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewDownloadTask("", FormatMP3, "medium", false)
		assert.ErrorIs(t, err, ErrEmptyURL)
	})

	t.Run("invalid format rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewDownloadTask("https://youtu.be/abc123", Format("flac"), "medium", false)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestSetStatus_CompletionTimestamp(t *testing.T) {
	t.Parallel()

	t.Run("set once on completion", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)

		assert.Nil(t, task.CompletedAt())

		task.SetStatus(StatusDownloading, "")
		assert.Nil(t, task.CompletedAt())

		task.SetStatus(StatusCompleted, "")
		first := task.CompletedAt()
		require.NotNil(t, first)
		assert.Equal(t, float64(100), task.Progress())

		// Transcription loop returns to Completed without touching the
		// original timestamp.
		task.SetStatus(StatusTranscribing, "")
		task.SetStatus(StatusCompleted, "")
		second := task.CompletedAt()
		require.NotNil(t, second)
		assert.Equal(t, *first, *second)
	})

	t.Run("never set for failed", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)

		task.SetStatus(StatusDownloading, "")
		task.SetStatus(StatusFailed, "network error")

		assert.Nil(t, task.CompletedAt())
		assert.Equal(t, "network error", task.ErrorMessage())
	})
}

func TestCompareAndSwapStatus(t *testing.T) {
	t.Parallel()

	task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
	require.NoError(t, err)

	assert.True(t, task.CompareAndSwapStatus(StatusQueued, StatusDownloading))
	assert.Equal(t, StatusDownloading, task.Status())

	// Second claim must lose.
	assert.False(t, task.CompareAndSwapStatus(StatusQueued, StatusDownloading))
	assert.Equal(t, StatusDownloading, task.Status())
}

func TestCancel(t *testing.T) {
	t.Parallel()

	t.Run("queued task", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)

		require.NoError(t, task.Cancel())
		assert.Equal(t, StatusFailed, task.Status())
		assert.Equal(t, "Cancelled by user", task.ErrorMessage())
	})

	t.Run("non-queued task rejected and unchanged", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)
		task.SetStatus(StatusDownloading, "")
		task.UpdateProgress(40, "1MiB/s", "00:10")

		assert.ErrorIs(t, task.Cancel(), ErrInvalidTaskState)
		assert.Equal(t, StatusDownloading, task.Status())
		assert.Equal(t, float64(40), task.Progress())
		assert.Equal(t, "", task.ErrorMessage())
	})
}

func TestResetForRetry(t *testing.T) {
	t.Parallel()

	t.Run("failed task reset", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)
		task.SetStatus(StatusDownloading, "")
		task.UpdateProgress(60, "2MiB/s", "00:05")
		task.SetMetadata("Title", "title_abc.mp3")
		task.SetStatus(StatusFailed, "timeout")

		require.NoError(t, task.ResetForRetry())

		assert.Equal(t, StatusQueued, task.Status())
		assert.Equal(t, float64(0), task.Progress())
		assert.Equal(t, "", task.ErrorMessage())
		assert.Equal(t, "", task.Filename())
		// Title survives a retry.
		assert.Equal(t, "Title", task.Title())
	})

	t.Run("non-failed task rejected and unchanged", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)
		task.SetStatus(StatusCompleted, "")

		assert.ErrorIs(t, task.ResetForRetry(), ErrInvalidTaskState)
		assert.Equal(t, StatusCompleted, task.Status())
		assert.Equal(t, float64(100), task.Progress())
	})
}

func TestResetForRequeue(t *testing.T) {
	t.Parallel()

	t.Run("clears completion timestamp from interrupted transcription", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", true)
		require.NoError(t, err)

		// A transcription interruption leaves the task persisted as
		// Completed-then-Transcribing, timestamp and filename set.
		task.SetStatus(StatusDownloading, "")
		task.SetMetadata("Talk", "Talk.mp3")
		task.SetStatus(StatusCompleted, "")
		task.SetStatus(StatusTranscribing, "")
		require.NotNil(t, task.CompletedAt())

		task.ResetForRequeue()

		assert.Equal(t, StatusQueued, task.Status())
		assert.Equal(t, float64(0), task.Progress())
		assert.Nil(t, task.CompletedAt())
		assert.Equal(t, "", task.Filename())
		assert.Equal(t, "", task.Transcription())
		assert.Equal(t, "", task.ErrorMessage())
		// Title survives, same as a retry.
		assert.Equal(t, "Talk", task.Title())
	})

	t.Run("completion timestamp is set afresh on the rerun", func(t *testing.T) {
		t.Parallel()

		task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
		require.NoError(t, err)
		task.SetStatus(StatusCompleted, "")
		first := task.CompletedAt()
		require.NotNil(t, first)

		task.ResetForRequeue()
		task.SetStatus(StatusCompleted, "")
		require.NotNil(t, task.CompletedAt())
	})
}

func TestUpdateProgress_Clamped(t *testing.T) {
	t.Parallel()

	task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP3, "medium", false)
	require.NoError(t, err)

	task.UpdateProgress(150, "", "")
	assert.Equal(t, float64(100), task.Progress())

	task.UpdateProgress(-5, "", "")
	assert.Equal(t, float64(0), task.Progress())
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	task, err := NewDownloadTask("https://youtu.be/abc123", FormatMP4, "720p", true)
	require.NoError(t, err)
	task.SetStatus(StatusDownloading, "")
	task.UpdateProgress(42.5, "1.2MiB/s", "00:32")
	task.SetMetadata("A Video", "A Video_12345678.mp4")
	task.PutMetadata("source", "playlist")
	task.SetStatus(StatusCompleted, "")
	task.SetTranscription("hello world")

	snap := task.Snapshot()

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded TaskSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := TaskFromSnapshot(decoded)
	require.NoError(t, err)

	assert.Equal(t, task.ID(), restored.ID())
	assert.Equal(t, task.URL(), restored.URL())
	assert.Equal(t, task.Format(), restored.Format())
	assert.Equal(t, task.Quality(), restored.Quality())
	assert.True(t, restored.TranscriptionEnabled())
	assert.Equal(t, StatusCompleted, restored.Status())
	assert.Equal(t, float64(100), restored.Progress())
	assert.Equal(t, "A Video", restored.Title())
	assert.Equal(t, "A Video_12345678.mp4", restored.Filename())
	assert.Equal(t, "hello world", restored.Transcription())
	assert.True(t, task.CreatedAt().Equal(restored.CreatedAt()))
	require.NotNil(t, restored.CompletedAt())
	assert.True(t, task.CompletedAt().Equal(*restored.CompletedAt()))
}

func TestTaskFromSnapshot_Invalid(t *testing.T) {
	t.Parallel()

	base := TaskSnapshot{
		ID:     "b2f7c1de-3c18-4b8d-9a63-0f2b6f6d7a51",
		URL:    "https://youtu.be/abc123",
		Format: "mp3",
		Status: StatusQueued,
	}

	t.Run("bad identifier", func(t *testing.T) {
		t.Parallel()
		snap := base
		snap.ID = "not-a-uuid"
		_, err := TaskFromSnapshot(snap)
		assert.ErrorIs(t, err, ErrInvalidTaskID)
	})

	t.Run("bad format", func(t *testing.T) {
		t.Parallel()
		snap := base
		snap.Format = "ogg"
		_, err := TaskFromSnapshot(snap)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("bad status", func(t *testing.T) {
		t.Parallel()
		snap := base
		snap.Status = Status("Exploded")
		_, err := TaskFromSnapshot(snap)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}
