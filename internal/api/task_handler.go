package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/api/shared"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/domain"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/events"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/task"
)

// TaskService is the orchestrator surface the handlers consume.
type TaskService interface {
	CreateAndEnqueue(urls []string, format domain.Format, quality string, transcribe bool) ([]domain.TaskSnapshot, error)
	List() []domain.TaskSnapshot
	Get(id uuid.UUID) (domain.TaskSnapshot, bool)
	Retry(id uuid.UUID) error
	Cancel(id uuid.UUID) error
	Remove(id uuid.UUID)
	ClearCompleted() int
	Statistics() task.Statistics
	DrainProgress() []events.Event
	TranscriptionAvailable() bool
}

// TaskHandler serves task listing, lifecycle and progress endpoints.
type TaskHandler struct {
	service TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(service TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger.With("component", "task_handler"),
	}
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.service.List()
	if tasks == nil {
		tasks = []domain.TaskSnapshot{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	snapshot, found := h.service.Get(id)
	if !found {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{Task: snapshot})
}

// RetryTask handles POST /api/tasks/{id}/retry.
func (h *TaskHandler) RetryTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Retry(id); err != nil {
		h.respondDispatchError(w, r, err, "retry")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "retry_started"})
}

// CancelTask handles POST /api/tasks/{id}/cancel.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(id); err != nil {
		h.respondDispatchError(w, r, err, "cancel")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "cancelled"})
}

// RemoveTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) RemoveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	h.service.Remove(id)
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "removed"})
}

// ClearCompleted handles POST /api/clear.
func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCompleted()
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "cleared"})
}

// GetProgress handles GET /api/progress, draining all pending events.
func (h *TaskHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	updates := h.service.DrainProgress()
	if updates == nil {
		updates = []events.Event{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"updates": updates})
}

// GetStatistics handles GET /api/statistics.
func (h *TaskHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"statistics": h.service.Statistics(),
	})
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondDispatchError maps orchestrator errors onto HTTP status codes:
// unknown task 404, wrong-state operation 409, anything else 500.
func (h *TaskHandler) respondDispatchError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
	case errors.Is(err, domain.ErrInvalidTaskState):
		shared.RespondWithError(w, r, http.StatusConflict, err.Error())
	default:
		h.logger.Error("task operation failed", "operation", op, "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to "+op+" task")
	}
}
