package roadmap

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// shortHex returns the first n hex characters of a fresh UUID.
func shortHex(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}

// NewRunID returns a run identifier like "run_3f2a9c81d04b".
func NewRunID() string {
	return fmt.Sprintf("run_%s", shortHex(12))
}

// NewQuestionID returns a question identifier like "q_a1b2c3d4".
func NewQuestionID() string {
	return fmt.Sprintf("q_%s", shortHex(8))
}

// NewSessionID returns a session identifier like "s_a1b2c3d4".
func NewSessionID() string {
	return fmt.Sprintf("s_%s", shortHex(8))
}

// NewIssueID returns a validation issue identifier like "issue_a1b2c3d4".
func NewIssueID() string {
	return fmt.Sprintf("issue_%s", shortHex(8))
}
