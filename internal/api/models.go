package api

import (
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
)

// DownloadRequest defines the payload for the download submission
// endpoint. URLs may contain several whitespace-separated links.
type DownloadRequest struct {
	URLs          string `json:"urls"          validate:"required,min=1"`
	Format        string `json:"format"        validate:"required,oneof=mp3 mp4"`
	Quality       string `json:"quality"       validate:"omitempty,oneof=high medium low best 1080p 720p 480p"`
	Transcription bool   `json:"transcription"`
}

// DownloadResponse reports the outcome of a submission.
type DownloadResponse struct {
	Status       string                `json:"status"`
	TasksCreated int                   `json:"tasks_created"`
	Tasks        []domain.TaskSnapshot `json:"tasks"`
}

// TaskListResponse wraps the full task listing.
type TaskListResponse struct {
	Tasks []domain.TaskSnapshot `json:"tasks"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task domain.TaskSnapshot `json:"task"`
}

// StatusResponse acknowledges a state-changing operation.
type StatusResponse struct {
	Status string `json:"status"`
}

// ConfigResponse exposes the options the frontend needs to render the
// submission form.
type ConfigResponse struct {
	AudioQualityOptions  map[string]string `json:"audio_quality_options"`
	VideoQualityOptions  []string          `json:"video_quality_options"`
	MaxURLsPerRequest    int               `json:"max_urls_per_request"`
	TranscriptionEnabled bool              `json:"transcription_enabled"`
	SupportedFormats     []string          `json:"supported_formats"`
}
