// Package downloader acquires media via the yt-dlp command line tool.
package downloader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/task"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/urlutil"
)

// Audio bitrate per quality tier (kbps).
var audioQualityOptions = map[string]string{
	"high":   "320",
	"medium": "192",
	"low":    "128",
}

// yt-dlp format selector per video quality tier.
var videoQualityOptions = map[string]string{
	"best":  "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
	"1080p": "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/best[height<=1080]",
	"720p":  "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]/best[height<=720]",
	"480p":  "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480][ext=mp4]/best[height<=480]",
}

// AudioQualityOptions returns the supported audio quality tiers.
func AudioQualityOptions() map[string]string {
	out := make(map[string]string, len(audioQualityOptions))
	for k, v := range audioQualityOptions {
		out[k] = v
	}
	return out
}

// VideoQualityOptions returns the supported video quality tier names.
func VideoQualityOptions() []string {
	return []string{"best", "1080p", "720p", "480p"}
}

// progressRe matches yt-dlp's --newline download progress lines, e.g.
// "[download]  42.7% of 10.42MiB at 1.23MiB/s ETA 00:32".
var progressRe = regexp.MustCompile(
	`^\[download\]\s+(\d+(?:\.\d+)?)%(?:\s+of\s+\S+)?(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`,
)

// unsafeFilenameRe strips characters that are not safe in output names.
var unsafeFilenameRe = regexp.MustCompile(`[\\/*?:"<>|]`)

// Options configures the yt-dlp adapter.
type Options struct {
	// Binary is the yt-dlp executable name or path.
	Binary string

	// Dir is the directory downloads are written to.
	Dir string

	// FFmpegLocation overrides ffmpeg autodetection when set.
	FFmpegLocation string
}

// YtDlp implements task.Fetcher by shelling out to yt-dlp.
type YtDlp struct {
	binary         string
	dir            string
	ffmpegLocation string
	aria2c         bool
	logger         *slog.Logger
}

// New creates a yt-dlp adapter, detecting ffmpeg and aria2c on PATH.
func New(opts Options, logger *slog.Logger) *YtDlp {
	binary := opts.Binary
	if binary == "" {
		binary = "yt-dlp"
	}

	ffmpeg := opts.FFmpegLocation
	if ffmpeg == "" {
		if path, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpeg = filepath.Dir(path)
		}
	}

	_, ariaErr := exec.LookPath("aria2c")

	return &YtDlp{
		binary:         binary,
		dir:            opts.Dir,
		ffmpegLocation: ffmpeg,
		aria2c:         ariaErr == nil,
		logger:         logger.With("component", "downloader"),
	}
}

// FFmpegAvailable reports whether an ffmpeg installation was found.
func (d *YtDlp) FFmpegAvailable() bool { return d.ffmpegLocation != "" }

// Aria2cAvailable reports whether aria2c acceleration is in use.
func (d *YtDlp) Aria2cAvailable() bool { return d.aria2c }

// Fetch downloads the task's URL, streaming progress through onProgress.
// On success the task's title and final filename are set, the output file
// is confirmed present on disk, and the task is marked Completed.
func (d *YtDlp) Fetch(ctx context.Context, t *domain.DownloadTask, onProgress task.ProgressFunc) error {
	if videoID := urlutil.ExtractVideoID(t.URL()); videoID != "" {
		t.PutMetadata("video_id", videoID)
	}

	title, err := d.resolveTitle(ctx, t.URL())
	if err != nil {
		return err
	}
	t.SetMetadata(title, "")
	if onProgress != nil {
		onProgress(task.ProgressUpdate{Percent: 0})
	}

	shortID := t.ID().String()[:8]
	args := d.buildArgs(t, title, shortID)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to start download: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", d.binary, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		update, ok := ParseProgressLine(line)
		if !ok {
			continue
		}
		if onProgress != nil {
			onProgress(update)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("download failed: %s", describeFailure(err, stderr.String()))
	}

	filename, err := d.locateOutput(shortID, t.Format())
	if err != nil {
		return err
	}

	t.SetMetadata("", filename)
	t.SetStatus(domain.StatusCompleted, "")
	t.UpdateProgress(100, "", "")

	d.logger.Info("download finished", "task_id", t.ID(), "filename", filename)
	return nil
}

// resolveTitle asks yt-dlp for the media title without downloading.
func (d *YtDlp) resolveTitle(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, d.binary,
		"--no-playlist", "--no-warnings", "--skip-download", "--print", "title", url)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to resolve title: %s", describeFailure(err, string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to resolve title: %w", err)
	}
	title := strings.TrimSpace(string(out))
	if title == "" {
		title = "Unknown"
	}
	return title, nil
}

// buildArgs assembles the yt-dlp invocation. The already-resolved title is
// sanitized and embedded literally in the output template instead of
// yt-dlp's %(title)s so the name on disk never carries path separators or
// shell metacharacters.
func (d *YtDlp) buildArgs(t *domain.DownloadTask, title, shortID string) []string {
	outTemplate := filepath.Join(d.dir, SanitizeFilename(title)+"_"+shortID+".%(ext)s")

	args := []string{
		"--newline",
		"--no-playlist",
		"--no-warnings",
		"--continue",
		"-o", outTemplate,
	}

	switch t.Format() {
	case domain.FormatMP3:
		bitrate, ok := audioQualityOptions[t.Quality()]
		if !ok {
			bitrate = audioQualityOptions["medium"]
		}
		args = append(args,
			"-f", "bestaudio/best",
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", bitrate+"K",
		)
	case domain.FormatMP4:
		selector, ok := videoQualityOptions[t.Quality()]
		if !ok {
			selector = videoQualityOptions["best"]
		}
		args = append(args,
			"-f", selector,
			"--merge-output-format", "mp4",
		)
	}

	if d.aria2c {
		args = append(args,
			"--downloader", "aria2c",
			"--downloader-args", "aria2c:-x16 -s16 -k1M",
		)
	}
	if d.ffmpegLocation != "" {
		args = append(args, "--ffmpeg-location", d.ffmpegLocation)
	}

	args = append(args, t.URL())
	return args
}

// locateOutput finds the finished file by the short task ID embedded in
// the output template and confirms it exists.
func (d *YtDlp) locateOutput(shortID string, format domain.Format) (string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read download directory: %w", err)
	}

	suffix := "." + string(format)
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() &&
			strings.Contains(name, shortID) &&
			strings.HasSuffix(strings.ToLower(name), suffix) {
			return name, nil
		}
	}
	return "", fmt.Errorf("output file not found after download")
}

// ParseProgressLine extracts a progress update from one line of yt-dlp
// --newline output. Post-processor markers ([ExtractAudio], [Merger],
// [VideoConvertor]) signal the conversion phase.
func ParseProgressLine(line string) (task.ProgressUpdate, bool) {
	for _, marker := range []string{"[ExtractAudio]", "[Merger]", "[VideoConvertor]"} {
		if strings.HasPrefix(line, marker) {
			return task.ProgressUpdate{PostProcessing: true}, true
		}
	}

	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return task.ProgressUpdate{}, false
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return task.ProgressUpdate{}, false
	}

	return task.ProgressUpdate{
		Percent: percent,
		Speed:   m[2],
		ETA:     m[3],
	}, true
}

// SanitizeFilename replaces characters unsafe for local storage.
func SanitizeFilename(name string) string {
	if name == "" {
		return "yt_download"
	}
	return unsafeFilenameRe.ReplaceAllString(name, "_")
}

// describeFailure turns an exec failure plus captured stderr into a
// human-readable error message, with a hint for the common missing-ffmpeg
// case.
func describeFailure(err error, stderr string) string {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	// Keep the tail: yt-dlp prints the actionable error last.
	if lines := strings.Split(msg, "\n"); len(lines) > 3 {
		msg = strings.Join(lines[len(lines)-3:], "\n")
	}
	if strings.Contains(strings.ToLower(msg), "ffmpeg") {
		msg += " (install ffmpeg from https://ffmpeg.org/ or set downloads.ffmpeg_location)"
	}
	return msg
}
