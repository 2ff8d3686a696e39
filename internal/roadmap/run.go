package roadmap

import "time"

// Run is the mutable state of one roadmap creation run. It is owned by the
// orchestrator; all concurrent access goes through orchestrator methods.
type Run struct {
	ID        string
	Topic     string
	Stage     Stage
	CreatedAt time.Time

	Questions []InterviewQuestion
	Answers   []InterviewAnswer

	SuggestedTitle string
	ConfirmedTitle string

	Outline    *SessionOutline
	Sessions   []ResearchedSession
	Validation *ValidationResult

	// FixRounds counts completed remediation rounds. At most one round runs
	// per run; after that the roadmap is saved regardless of the re-validation
	// outcome.
	FixRounds int
}

// NewRun creates a run in the starting stage.
func NewRun(topic string) *Run {
	return &Run{
		ID:        NewRunID(),
		Topic:     topic,
		Stage:     StageStarting,
		CreatedAt: time.Now().UTC(),
	}
}

// Title resolves the roadmap title: the user-confirmed title wins, then the
// architect's suggestion, then the raw topic truncated to 100 characters.
func (r *Run) Title() string {
	if r.ConfirmedTitle != "" {
		return r.ConfirmedTitle
	}
	if r.SuggestedTitle != "" {
		return r.SuggestedTitle
	}
	topic := r.Topic
	if len(topic) > 100 {
		topic = topic[:100]
	}
	return topic
}

// Roadmap is the finished artifact handed to persistence.
type Roadmap struct {
	Title      string              `json:"title"`
	Topic      string              `json:"topic"`
	Summary    string              `json:"summary"`
	TotalHours float64             `json:"total_hours"`
	Sessions   []ResearchedSession `json:"sessions"`
}

// BuildRoadmap assembles the final artifact from the run's outline and
// researched sessions.
func (r *Run) BuildRoadmap() *Roadmap {
	rm := &Roadmap{
		Title:    r.Title(),
		Topic:    r.Topic,
		Sessions: r.Sessions,
	}
	if r.Outline != nil {
		rm.Summary = r.Outline.Summary
		rm.TotalHours = r.Outline.TotalEstimatedHours()
	}
	return rm
}

// ReviewDecision is the user's verdict at the review checkpoint.
type ReviewDecision struct {
	AcceptAsIs       bool
	SelectedIssueIDs []string
	ConfirmedTitle   string
}
