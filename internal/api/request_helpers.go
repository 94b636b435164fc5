package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasktracker/internal/domain"
)

// Path parameter names.
const (
	userIDParam = "user_id"
	taskIDParam = "task_id"
)

// getPathID extracts a positive integer ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer", domain.ErrInvalidID)
	}

	return id, nil
}

// getUserAndTaskIDs extracts both IDs used by the per-task routes.
func getUserAndTaskIDs(r *http.Request) (int64, int64, error) {
	userID, err := getPathID(r, userIDParam)
	if err != nil {
		return 0, 0, err
	}
	taskID, err := getPathID(r, taskIDParam)
	if err != nil {
		return 0, 0, err
	}
	return userID, taskID, nil
}
