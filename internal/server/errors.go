package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/roadmap-agent/internal/pipeline"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var incomplete *roadmap.IncompleteAnswersError
	var unknownIssues *pipeline.ErrUnknownIssues

	switch {
	case errors.Is(err, pipeline.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNotAwaitingInput):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrRunCancelled):
		return http.StatusConflict
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unknownIssues):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
