package pipeline

import "github.com/jonathan/roadmap-agent/internal/roadmap"

// Event names on the run stream. The wire format is one SSE event per
// emission: an "event:" line with the name and a "data:" line with one JSON
// object.
const (
	EventStageUpdate      = "stage_update"
	EventSessionProgress  = "session_progress"
	EventTitleSuggestion  = "title_suggestion"
	EventValidationResult = "validation_result"
	EventComplete         = "complete"
	EventError            = "error"
	EventCancelled        = "cancelled"
)

// Event is one emission on a run's stream.
type Event struct {
	Name string
	Data any
}

// StageUpdateData announces a stage transition.
type StageUpdateData struct {
	Stage   roadmap.Stage `json:"stage"`
	Message string        `json:"message"`
}

// SessionProgressData reports per-session research progress, emitted in
// session order.
type SessionProgressData struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Title     string `json:"title"`
}

// TitleSuggestionData carries the architect's proposed roadmap title.
type TitleSuggestionData struct {
	SuggestedTitle string `json:"suggested_title"`
}

// ValidationResultData carries the validator's report at the review
// checkpoint.
type ValidationResultData struct {
	Score   int                       `json:"score"`
	Summary string                    `json:"summary"`
	Passed  bool                      `json:"passed"`
	Issues  []roadmap.ValidationIssue `json:"issues"`
}

// CompleteData terminates a successful run.
type CompleteData struct {
	RoadmapID string `json:"roadmap_id"`
	Message   string `json:"message"`
}

// ErrorData terminates a failed run.
type ErrorData struct {
	Message string `json:"message"`
}

// CancelledData terminates a cancelled run.
type CancelledData struct {
	Message string `json:"message"`
}

func stageEvent(stage roadmap.Stage) Event {
	return Event{Name: EventStageUpdate, Data: StageUpdateData{Stage: stage, Message: stage.Message()}}
}
