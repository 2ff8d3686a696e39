package pipeline

import (
	"errors"
	"fmt"
)

// ErrRunNotFound indicates the run id is unknown to the registry, either
// because it never existed or because the run already finished and was
// evicted.
var ErrRunNotFound = errors.New("run not found")

// ErrNotAwaitingInput indicates a resume call arrived while the run was not
// paused at the matching checkpoint. A second racing resume for the same
// checkpoint gets this error too.
var ErrNotAwaitingInput = errors.New("run is not awaiting input")

// ErrUnknownIssues indicates a review selected issue ids the validator never
// reported.
type ErrUnknownIssues struct {
	IssueIDs []string
}

func (e *ErrUnknownIssues) Error() string {
	return fmt.Sprintf("review selected unknown issue ids: %v", e.IssueIDs)
}

// ErrRunCancelled aborts in-flight fan-out work at a stage boundary, and is
// returned by a start call that lost to a concurrent cancel. The run itself
// finishes through the cancelled event.
var ErrRunCancelled = errors.New("run cancelled")
