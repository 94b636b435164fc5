package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasktracker/internal/api/shared"
	"github.com/phrazzld/tasktracker/internal/domain"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/phrazzld/tasktracker/internal/service"
)

// Success messages returned by the task endpoints.
const (
	msgTasksAdded  = "Tasks added successfully"
	msgTaskClosed  = "Task closed successfully"
	msgTaskRemoved = "Task removed successfully"
)

const taskHandlerComponent = "task_handler"

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// Routes mounts the task endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/add_task/{user_id:[0-9]+}", h.AddTasks)
	r.Get("/counter/{user_id:[0-9]+}", h.GetCounters)
	r.Get("/in_progress/{user_id:[0-9]+}", h.GetInProgress)
	r.Put("/close_task/{user_id:[0-9]+}/{task_id:[0-9]+}", h.CloseTask)
	r.Delete("/delete_task/{user_id:[0-9]+}/{task_id:[0-9]+}", h.DeleteTask)
}

// batchSizeMessage is returned when a batch is empty or too large.
func batchSizeMessage(maxSize int) string {
	return fmt.Sprintf("Not so fast, cowboy! Only %d to %d tasks supported in one request",
		domain.MinBatchSize, maxSize)
}

// AddTasks handles POST /add_task/{user_id} requests
func (h *TaskHandler) AddTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, userIDParam)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	var items []AddTaskItem
	if err := shared.DecodeJSON(w, r, &items); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateEach(items); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid task_description", err)
		return
	}

	descriptions := make([]*string, len(items))
	for i, item := range items {
		descriptions[i] = item.Description
	}

	if err := h.taskService.AddTasks(r.Context(), userID, descriptions); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithMessage(w, r, http.StatusCreated, msgTasksAdded)
}

// GetCounters handles GET /counter/{user_id} requests
func (h *TaskHandler) GetCounters(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, userIDParam)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	counters, err := h.taskService.Counters(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CountersResponse{
		Created: counters.Created,
		Closed:  counters.Closed,
	})
}

// GetInProgress handles GET /in_progress/{user_id} requests
func (h *TaskHandler) GetInProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, userIDParam)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	open, err := h.taskService.InProgress(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, InProgressResponse{InProgress: open})
}

// CloseTask handles PUT /close_task/{user_id}/{task_id} requests
func (h *TaskHandler) CloseTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, err := getUserAndTaskIDs(r)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	if err := h.taskService.CloseTask(r.Context(), userID, taskID); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithMessage(w, r, http.StatusOK, msgTaskClosed)
}

// DeleteTask handles DELETE /delete_task/{user_id}/{task_id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, err := getUserAndTaskIDs(r)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithMessage(w, r, http.StatusOK, msgTaskRemoved)
}

// respondWithServiceError writes the response for err. A rejected batch size
// keeps its historical {"message": ...} body; everything else goes through
// the status and safe-message mapping.
func (h *TaskHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidBatchSize) {
		logger.ForComponent(r.Context(), h.logger, taskHandlerComponent).Debug("batch size rejected",
			slog.String("error", err.Error()))
		shared.RespondWithMessage(w, r, http.StatusBadRequest, batchSizeMessage(h.taskService.MaxBatchSize()))
		return
	}

	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
