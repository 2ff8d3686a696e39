package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/roadmap-agent/internal/pipeline"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"run not found", pipeline.ErrRunNotFound, http.StatusNotFound},
		{"wrapped run not found", fmt.Errorf("lookup: %w", pipeline.ErrRunNotFound), http.StatusNotFound},
		{"not awaiting input", pipeline.ErrNotAwaitingInput, http.StatusConflict},
		{"run cancelled", pipeline.ErrRunCancelled, http.StatusConflict},
		{"incomplete answers", &roadmap.IncompleteAnswersError{Missing: []string{"q_1"}}, http.StatusUnprocessableEntity},
		{"unknown issues", &pipeline.ErrUnknownIssues{IssueIDs: []string{"issue_9"}}, http.StatusBadRequest},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
