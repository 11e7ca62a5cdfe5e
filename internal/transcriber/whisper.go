// Package transcriber derives text from completed downloads using the
// whisper command line tool.
package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/task"
)

// Options configures the whisper adapter.
type Options struct {
	// Enabled toggles transcription globally.
	Enabled bool

	// Model is the whisper model name (tiny, base, small, ...).
	Model string

	// Dir is the directory completed downloads live in.
	Dir string
}

// Whisper implements task.Transcriber by shelling out to the whisper CLI.
type Whisper struct {
	enabled bool
	binary  string
	model   string
	dir     string
	logger  *slog.Logger
}

// New creates a whisper adapter. Availability is decided once at
// construction by looking the binary up on PATH.
func New(opts Options, logger *slog.Logger) *Whisper {
	model := opts.Model
	if model == "" {
		model = "base"
	}

	binary, err := exec.LookPath("whisper")
	if err != nil {
		binary = ""
		if opts.Enabled {
			logger.Warn("whisper not found on PATH, transcription unavailable")
		}
	}

	return &Whisper{
		enabled: opts.Enabled,
		binary:  binary,
		model:   model,
		dir:     opts.Dir,
		logger:  logger.With("component", "transcriber"),
	}
}

// Available reports whether transcription can be performed.
func (w *Whisper) Available() bool {
	return w.enabled && w.binary != ""
}

// Transcribe runs whisper against the task's completed output file and
// returns the resulting text. The task must already be Completed with a
// filename set; status is never mutated here.
func (w *Whisper) Transcribe(ctx context.Context, t *domain.DownloadTask, onProgress task.ProgressFunc) (string, error) {
	if !w.Available() {
		return "", fmt.Errorf("transcription is not available")
	}

	filename := t.Filename()
	if filename == "" {
		return "", fmt.Errorf("task has no output file to transcribe")
	}

	inputPath := filepath.Join(w.dir, filename)
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("output file missing for transcription: %w", err)
	}

	outDir, err := os.MkdirTemp("", "whisper-")
	if err != nil {
		return "", fmt.Errorf("failed to create transcription workspace: %w", err)
	}
	defer os.RemoveAll(outDir)

	if onProgress != nil {
		onProgress(task.ProgressUpdate{Percent: 0})
	}

	cmd := exec.CommandContext(ctx, w.binary,
		inputPath,
		"--model", w.model,
		"--output_format", "txt",
		"--output_dir", outDir,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	w.logger.Info("transcribing", "task_id", t.ID(), "file", filename, "model", w.model)
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("whisper failed: %s", detail)
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	text, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return "", fmt.Errorf("transcription output missing: %w", err)
	}

	if onProgress != nil {
		onProgress(task.ProgressUpdate{Percent: 100})
	}
	return strings.TrimSpace(string(text)), nil
}
