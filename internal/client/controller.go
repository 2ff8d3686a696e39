// Package client implements the pipeline controller: the client half of the
// roadmap creation protocol. It issues the start and resume calls, consumes
// the run's event stream, and tracks a client-visible stage.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/roadmap-agent/internal/pipeline"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
	"github.com/jonathan/roadmap-agent/internal/server"
)

// Stage is the client-visible view of a run. It is coarser than the server's
// stage enum: all generation stages collapse into StageGenerating.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageInterviewing Stage = "interviewing"
	StageGenerating   Stage = "generating"
	StageReviewing    Stage = "reviewing"
	StageSaving       Stage = "saving"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
	StageCancelled    Stage = "cancelled"
)

// Terminal reports whether the controller's run can make no further progress.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed || s == StageCancelled
}

// mapStage collapses a server stage onto the client enum.
func mapStage(s roadmap.Stage) Stage {
	switch s {
	case roadmap.StageStarting:
		return StageIdle
	case roadmap.StageInterviewing:
		return StageInterviewing
	case roadmap.StageArchitecting, roadmap.StageResearching,
		roadmap.StageFindingResources, roadmap.StageValidating:
		return StageGenerating
	case roadmap.StageUserReview:
		return StageReviewing
	case roadmap.StageSaving:
		return StageSaving
	case roadmap.StageComplete:
		return StageDone
	case roadmap.StageError:
		return StageFailed
	case roadmap.StageCancelled:
		return StageCancelled
	default:
		return StageGenerating
	}
}

// Progress is the latest research progress seen on the stream.
type Progress struct {
	Completed int
	Total     int
	Title     string
}

// Controller drives one roadmap creation run against a server.
type Controller struct {
	baseURL string
	hc      *http.Client

	mu             sync.Mutex
	stage          Stage
	runID          string
	roadmapID      string
	suggestedTitle string
	progress       Progress
	validation     *pipeline.ValidationResultData
	failure        string
}

// New creates a controller. hc may be nil, in which case a client with a
// 30 second timeout on non-streaming calls is used.
func New(baseURL string, hc *http.Client) *Controller {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Controller{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		stage:   StageIdle,
	}
}

// Stage returns the client-visible stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// RunID returns the run identifier once started.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// RoadmapID returns the saved roadmap's id once the run completes.
func (c *Controller) RoadmapID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roadmapID
}

// SuggestedTitle returns the architect's proposed title, if seen.
func (c *Controller) SuggestedTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suggestedTitle
}

// Progress returns the latest research progress seen.
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Validation returns the validator's report once the run parks at review.
func (c *Controller) Validation() *pipeline.ValidationResultData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validation
}

// Failure returns the error message from a failed run.
func (c *Controller) Failure() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Start creates a run for the topic and returns its interview questions.
func (c *Controller) Start(ctx context.Context, topic string) ([]roadmap.InterviewQuestion, error) {
	var out server.StartRunResponse
	if err := c.postJSON(ctx, "/roadmaps/create/start",
		server.StartRunRequest{Topic: topic}, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.runID = out.RunID
	c.stage = StageInterviewing
	c.mu.Unlock()
	return out.Questions, nil
}

// SubmitAnswers resumes the run with the complete answer set and follows the
// stream until the run parks at review or terminates. On a parked run the
// validator's report is available via Validation.
func (c *Controller) SubmitAnswers(ctx context.Context, answers []roadmap.InterviewAnswer) error {
	c.mu.Lock()
	runID := c.runID
	c.mu.Unlock()

	resp, err := c.postStream(ctx, "/roadmaps/create/interview", server.SubmitAnswersRequest{
		RunID:   runID,
		Answers: answers,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The user_review stage update precedes the validation_result payload;
	// keep reading until the report itself has arrived.
	return c.follow(resp.Body, func(stage Stage) bool {
		return (stage == StageReviewing && c.Validation() != nil) || stage.Terminal()
	})
}

// SubmitReview resumes the run with the review decision and follows the
// stream to a terminal stage. On success the roadmap id is available via
// RoadmapID.
func (c *Controller) SubmitReview(ctx context.Context, decision roadmap.ReviewDecision) error {
	c.mu.Lock()
	runID := c.runID
	c.mu.Unlock()

	resp, err := c.postStream(ctx, "/roadmaps/create/review", server.SubmitReviewRequest{
		RunID:            runID,
		AcceptAsIs:       decision.AcceptAsIs,
		SelectedIssueIDs: decision.SelectedIssueIDs,
		ConfirmedTitle:   decision.ConfirmedTitle,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.follow(resp.Body, func(stage Stage) bool {
		return stage.Terminal()
	})
}

// Cancel requests cooperative cancellation of the run.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	runID := c.runID
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/roadmaps/create/"+runID, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Reconnect reattaches to the run's stream after a disconnection and follows
// it until the given condition holds. There is no replay: the first event is
// a stage update for wherever the run currently is, and the controller
// adopts it as the current known stage.
func (c *Controller) Reconnect(ctx context.Context, until func(Stage) bool) error {
	c.mu.Lock()
	runID := c.runID
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/roadmaps/create/"+runID+"/events", nil)
	if err != nil {
		return err
	}
	resp, err := c.streamClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return c.follow(resp.Body, until)
}

// follow consumes SSE events off body, applying each to the controller's
// state, until the condition holds or the stream ends.
func (c *Controller) follow(body io.Reader, until func(Stage) bool) error {
	var name string
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if name == "" {
				continue
			}
			if err := c.apply(name, []byte(strings.TrimPrefix(line, "data: "))); err != nil {
				return err
			}
			name = ""
			if until(c.Stage()) {
				return nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("event stream read failed: %w", err)
	}
	if until(c.Stage()) {
		return nil
	}
	return fmt.Errorf("event stream ended in stage %s", c.Stage())
}

// apply folds one event into the controller's state.
func (c *Controller) apply(name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case pipeline.EventStageUpdate:
		var d pipeline.StageUpdateData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("malformed stage_update: %w", err)
		}
		c.stage = mapStage(d.Stage)
	case pipeline.EventTitleSuggestion:
		var d pipeline.TitleSuggestionData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("malformed title_suggestion: %w", err)
		}
		c.suggestedTitle = d.SuggestedTitle
	case pipeline.EventSessionProgress:
		var d pipeline.SessionProgressData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("malformed session_progress: %w", err)
		}
		c.progress = Progress{Completed: d.Completed, Total: d.Total, Title: d.Title}
	case pipeline.EventValidationResult:
		var d pipeline.ValidationResultData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("malformed validation_result: %w", err)
		}
		c.validation = &d
		c.stage = StageReviewing
	case pipeline.EventComplete:
		var d pipeline.CompleteData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("malformed complete: %w", err)
		}
		c.roadmapID = d.RoadmapID
		c.stage = StageDone
	case pipeline.EventError:
		var d pipeline.ErrorData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("malformed error event: %w", err)
		}
		c.failure = d.Message
		c.stage = StageFailed
	case pipeline.EventCancelled:
		c.stage = StageCancelled
	}
	// Unknown event names are skipped so older controllers tolerate newer
	// servers.
	return nil
}

// streamClient returns an HTTP client without the overall timeout, for
// long-lived SSE responses.
func (c *Controller) streamClient() *http.Client {
	sc := *c.hc
	sc.Timeout = 0
	return &sc
}

func (c *Controller) postJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.post(ctx, c.hc, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Controller) postStream(ctx context.Context, path string, in any) (*http.Response, error) {
	resp, err := c.post(ctx, c.streamClient(), path, in)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Controller) post(ctx context.Context, hc *http.Client, path string, in any) (*http.Response, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return hc.Do(req)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return fmt.Errorf("server returned %s: %s", resp.Status, body.Error)
}
