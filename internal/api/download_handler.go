package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/api/shared"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/downloader"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/task"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/urlutil"
)

// DownloadHandler serves download submission and frontend config.
type DownloadHandler struct {
	service TaskService
	maxURLs int
	logger  *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler. maxURLs bounds how many
// locators one submission may contain.
func NewDownloadHandler(service TaskService, maxURLs int, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		service: service,
		maxURLs: maxURLs,
		logger:  logger.With("component", "download_handler"),
	}
}

// StartDownload handles POST /api/download: validates the request, creates
// a task per new locator and starts processing. Returns 202 because the
// work itself is asynchronous.
func (h *DownloadHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	format, err := domain.ParseFormat(req.Format)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid format. Use 'mp3' or 'mp4'")
		return
	}

	quality := req.Quality
	if quality == "" {
		quality = "medium"
	}

	urls := urlutil.Sanitize(req.URLs)
	if len(urls) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No valid YouTube URLs found")
		return
	}
	if len(urls) > h.maxURLs {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Too many URLs. Maximum %d allowed", h.maxURLs))
		return
	}

	created, err := h.service.CreateAndEnqueue(urls, format, quality, req.Transcription)
	if err != nil {
		if errors.Is(err, task.ErrNothingToDo) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "All URLs are already in the queue")
			return
		}
		h.logger.Error("failed to create tasks", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to start download")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, DownloadResponse{
		Status:       "started",
		TasksCreated: len(created),
		Tasks:        created,
	})
}

// GetConfig handles GET /api/config.
func (h *DownloadHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ConfigResponse{
		AudioQualityOptions:  downloader.AudioQualityOptions(),
		VideoQualityOptions:  downloader.VideoQualityOptions(),
		MaxURLsPerRequest:    h.maxURLs,
		TranscriptionEnabled: h.service.TranscriptionAvailable(),
		SupportedFormats:     []string{string(domain.FormatMP3), string(domain.FormatMP4)},
	})
}
