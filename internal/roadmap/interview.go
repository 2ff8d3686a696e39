package roadmap

import (
	"fmt"
	"strings"
)

// ExampleOption is a one-click answer suggestion shown next to a question.
type ExampleOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// InterviewQuestion is a single clarifying question produced by the
// interviewer stage.
type InterviewQuestion struct {
	ID             string          `json:"id"`
	Question       string          `json:"question"`
	Purpose        string          `json:"purpose"`
	ExampleOptions []ExampleOption `json:"example_options,omitempty"`
	AllowsFreeform bool            `json:"allows_freeform"`
}

// InterviewAnswer is the user's answer to one interview question.
type InterviewAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// IncompleteAnswersError reports an answer set that does not match the
// question set exactly one-to-one.
type IncompleteAnswersError struct {
	Missing []string
	Unknown []string
}

func (e *IncompleteAnswersError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing answers for questions: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("answers for unknown questions: %s", strings.Join(e.Unknown, ", ")))
	}
	if len(parts) == 0 {
		return "incomplete answer set"
	}
	return strings.Join(parts, "; ")
}

// MatchAnswers checks that answers contains exactly one non-empty answer for
// every question asked, with no answers for unknown question ids. Duplicate
// answers for the same question count as unknown.
func MatchAnswers(questions []InterviewQuestion, answers []InterviewAnswer) error {
	asked := make(map[string]bool, len(questions))
	for _, q := range questions {
		asked[q.ID] = false
	}

	var unknown []string
	for _, a := range answers {
		seen, ok := asked[a.QuestionID]
		if !ok || seen {
			unknown = append(unknown, a.QuestionID)
			continue
		}
		if strings.TrimSpace(a.Answer) == "" {
			// Blank answers leave the question unanswered.
			continue
		}
		asked[a.QuestionID] = true
	}

	var missing []string
	for _, q := range questions {
		if !asked[q.ID] {
			missing = append(missing, q.ID)
		}
	}

	if len(missing) > 0 || len(unknown) > 0 {
		return &IncompleteAnswersError{Missing: missing, Unknown: unknown}
	}
	return nil
}
