// Package roadmap defines the data model for roadmap creation runs:
// pipeline stages, interview questions, session outlines, researched
// sessions, and validation results.
package roadmap

// Stage identifies where a run currently is in the creation pipeline.
type Stage string

// Pipeline stages in order. StageInterviewing and StageUserReview pause the
// run waiting for user input; StageComplete, StageError and StageCancelled
// are terminal.
const (
	StageStarting         Stage = "starting"
	StageInterviewing     Stage = "interviewing"
	StageArchitecting     Stage = "architecting"
	StageResearching      Stage = "researching"
	StageFindingResources Stage = "finding_resources"
	StageValidating       Stage = "validating"
	StageUserReview       Stage = "user_review"
	StageSaving           Stage = "saving"
	StageComplete         Stage = "complete"
	StageError            Stage = "error"
	StageCancelled        Stage = "cancelled"
)

// Terminal reports whether the run can make no further progress.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError || s == StageCancelled
}

// AwaitingInput reports whether the stage is a checkpoint waiting for the user.
func (s Stage) AwaitingInput() bool {
	return s == StageInterviewing || s == StageUserReview
}

// stageMessages are the human-readable progress messages attached to
// stage_update events.
var stageMessages = map[Stage]string{
	StageStarting:         "Starting roadmap creation",
	StageInterviewing:     "Preparing a few questions about your goals",
	StageArchitecting:     "Designing your learning path",
	StageResearching:      "Researching session content",
	StageFindingResources: "Finding supporting videos and resources",
	StageValidating:       "Reviewing the roadmap for quality",
	StageUserReview:       "Waiting for your review",
	StageSaving:           "Saving your roadmap",
	StageComplete:         "Your roadmap is ready",
	StageError:            "Roadmap creation failed",
	StageCancelled:        "Roadmap creation cancelled",
}

// Message returns the progress message shown to users for this stage.
func (s Stage) Message() string {
	if msg, ok := stageMessages[s]; ok {
		return msg
	}
	return string(s)
}
