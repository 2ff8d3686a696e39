package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/roadmap-agent/internal/pipeline"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

// StartRunRequest starts a new roadmap creation run.
type StartRunRequest struct {
	Topic string `json:"topic" validate:"required,min=3,max=500"`
}

// StartRunResponse carries the new run's id and interview questions.
type StartRunResponse struct {
	RunID     string                      `json:"run_id"`
	Stage     roadmap.Stage               `json:"stage"`
	Questions []roadmap.InterviewQuestion `json:"questions"`
}

// SubmitAnswersRequest resumes a run paused at the interview checkpoint.
type SubmitAnswersRequest struct {
	RunID   string                    `json:"run_id" validate:"required"`
	Answers []roadmap.InterviewAnswer `json:"answers" validate:"required,min=1"`
}

// SubmitReviewRequest resumes a run paused at the review checkpoint.
type SubmitReviewRequest struct {
	RunID            string   `json:"run_id" validate:"required"`
	AcceptAsIs       bool     `json:"accept_as_is"`
	SelectedIssueIDs []string `json:"selected_issue_ids"`
	ConfirmedTitle   string   `json:"confirmed_title"`
}

// handleStartRun creates a run and returns its interview questions. The
// interviewer stage runs synchronously; generation starts only once answers
// arrive.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, questions, err := s.service.StartRun(r.Context(), req.Topic)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, StartRunResponse{
		RunID:     runID,
		Stage:     roadmap.StageInterviewing,
		Questions: questions,
	})
}

// handleSubmitAnswers resumes the interview checkpoint and streams the
// generation segment as SSE until the run parks at review or terminates.
func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, cancel, err := s.service.SubmitAnswers(req.RunID, req.Answers)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	defer cancel()

	s.streamEvents(w, r, ch)
}

// handleSubmitReview resumes the review checkpoint and streams the finishing
// segment as SSE. The decision must either accept the roadmap as-is or select
// at least one reported issue.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.AcceptAsIs && len(req.SelectedIssueIDs) == 0 {
		s.errorResponse(w, http.StatusBadRequest,
			"review must accept the roadmap or select at least one issue")
		return
	}

	ch, cancel, err := s.service.SubmitReview(req.RunID, roadmap.ReviewDecision{
		AcceptAsIs:       req.AcceptAsIs,
		SelectedIssueIDs: req.SelectedIssueIDs,
		ConfirmedTitle:   req.ConfirmedTitle,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	defer cancel()

	s.streamEvents(w, r, ch)
}

// handleEvents reconnects a client to a live run's stream. It replaces any
// previous subscriber and opens with a synthetic stage_update so the client
// knows where the run currently is.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")

	stage, ch, cancel, err := s.service.Attach(runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent(pipeline.EventStageUpdate, pipeline.StageUpdateData{
		Stage:   stage,
		Message: stage.Message(),
	}); err != nil {
		return
	}

	s.streamLoop(sse, r, ch)
}

// handleCancelRun requests cooperative cancellation of a run.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")

	if err := s.service.Cancel(runID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"run_id":  runID,
		"message": "cancellation requested",
	})
}

// streamEvents relays pipeline events to the client as SSE until the channel
// closes or the client disconnects.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, ch <-chan pipeline.Event) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.streamLoop(sse, r, ch)
}

func (s *Server) streamLoop(sse *SSEWriter, r *http.Request, ch <-chan pipeline.Event) {
	for {
		select {
		case <-r.Context().Done():
			// Client gone; the run keeps going and a reconnect picks the
			// stream back up.
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.WriteEvent(ev.Name, ev.Data); err != nil {
				s.logger.Warn("SSE write failed", zap.Error(err))
				return
			}
		}
	}
}
