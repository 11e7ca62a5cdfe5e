package transcriber

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAvailable(t *testing.T) {
	t.Parallel()

	t.Run("disabled is never available", func(t *testing.T) {
		t.Parallel()

		w := New(Options{Enabled: false}, discardLogger())
		assert.False(t, w.Available())
	})

	t.Run("enabled without binary is unavailable", func(t *testing.T) {
		t.Parallel()

		w := &Whisper{enabled: true, binary: "", logger: discardLogger()}
		assert.False(t, w.Available())
	})

	t.Run("enabled with binary is available", func(t *testing.T) {
		t.Parallel()

		w := &Whisper{enabled: true, binary: "/usr/bin/whisper", logger: discardLogger()}
		assert.True(t, w.Available())
	})
}

func TestTranscribe_Guards(t *testing.T) {
	t.Parallel()

	newTask := func(t *testing.T) *domain.DownloadTask {
		t.Helper()
		task, err := domain.NewDownloadTask("https://youtu.be/abc123", domain.FormatMP3, "medium", true)
		require.NoError(t, err)
		return task
	}

	t.Run("unavailable adapter", func(t *testing.T) {
		t.Parallel()

		w := &Whisper{enabled: false, logger: discardLogger()}
		_, err := w.Transcribe(context.Background(), newTask(t), nil)
		assert.ErrorContains(t, err, "not available")
	})

	t.Run("task without output file", func(t *testing.T) {
		t.Parallel()

		w := &Whisper{enabled: true, binary: "/usr/bin/whisper", logger: discardLogger()}
		_, err := w.Transcribe(context.Background(), newTask(t), nil)
		assert.ErrorContains(t, err, "no output file")
	})

	t.Run("output file missing on disk", func(t *testing.T) {
		t.Parallel()

		w := &Whisper{
			enabled: true,
			binary:  "/usr/bin/whisper",
			model:   "base",
			dir:     t.TempDir(),
			logger:  discardLogger(),
		}
		task := newTask(t)
		task.SetMetadata("Gone", "Gone.mp3")

		_, err := w.Transcribe(context.Background(), task, nil)
		assert.ErrorContains(t, err, "output file missing")
	})
}
