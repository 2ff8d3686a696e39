package roadmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageComplete.Terminal())
	assert.True(t, StageError.Terminal())
	assert.True(t, StageCancelled.Terminal())
	assert.False(t, StageResearching.Terminal())
	assert.False(t, StageUserReview.Terminal())
}

func TestStageAwaitingInput(t *testing.T) {
	assert.True(t, StageInterviewing.AwaitingInput())
	assert.True(t, StageUserReview.AwaitingInput())
	assert.False(t, StageArchitecting.AwaitingInput())
	assert.False(t, StageComplete.AwaitingInput())
}

func TestIDFormats(t *testing.T) {
	assert.Regexp(t, `^run_[0-9a-f]{12}$`, NewRunID())
	assert.Regexp(t, `^q_[0-9a-f]{8}$`, NewQuestionID())
	assert.Regexp(t, `^s_[0-9a-f]{8}$`, NewSessionID())
	assert.Regexp(t, `^issue_[0-9a-f]{8}$`, NewIssueID())
	assert.NotEqual(t, NewRunID(), NewRunID())
}

func TestMatchAnswers(t *testing.T) {
	questions := []InterviewQuestion{
		{ID: "q_1", Question: "Why?"},
		{ID: "q_2", Question: "How much time?"},
	}

	t.Run("complete", func(t *testing.T) {
		err := MatchAnswers(questions, []InterviewAnswer{
			{QuestionID: "q_1", Answer: "for work"},
			{QuestionID: "q_2", Answer: "2 hours a week"},
		})
		assert.NoError(t, err)
	})

	t.Run("missing answer", func(t *testing.T) {
		err := MatchAnswers(questions, []InterviewAnswer{
			{QuestionID: "q_1", Answer: "for work"},
		})
		var incomplete *IncompleteAnswersError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, []string{"q_2"}, incomplete.Missing)
		assert.Empty(t, incomplete.Unknown)
	})

	t.Run("unknown question id", func(t *testing.T) {
		err := MatchAnswers(questions, []InterviewAnswer{
			{QuestionID: "q_1", Answer: "for work"},
			{QuestionID: "q_2", Answer: "2 hours"},
			{QuestionID: "q_99", Answer: "extra"},
		})
		var incomplete *IncompleteAnswersError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, []string{"q_99"}, incomplete.Unknown)
	})

	t.Run("duplicate answer", func(t *testing.T) {
		err := MatchAnswers(questions, []InterviewAnswer{
			{QuestionID: "q_1", Answer: "first"},
			{QuestionID: "q_1", Answer: "second"},
			{QuestionID: "q_2", Answer: "2 hours"},
		})
		var incomplete *IncompleteAnswersError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, []string{"q_1"}, incomplete.Unknown)
	})

	t.Run("blank answer counts as missing", func(t *testing.T) {
		err := MatchAnswers(questions, []InterviewAnswer{
			{QuestionID: "q_1", Answer: "   "},
			{QuestionID: "q_2", Answer: "2 hours"},
		})
		var incomplete *IncompleteAnswersError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, []string{"q_1"}, incomplete.Missing)
	})
}

func TestNormalizeSessionType(t *testing.T) {
	assert.Equal(t, SessionTutorial, NormalizeSessionType("tutorial"))
	assert.Equal(t, SessionConcept, NormalizeSessionType("lecture"))
	assert.Equal(t, SessionConcept, NormalizeSessionType(""))
}

func TestNormalizeCategoryAndSeverity(t *testing.T) {
	assert.Equal(t, IssueGap, NormalizeCategory("gap"))
	assert.Equal(t, IssueCoherence, NormalizeCategory("confusing"))
	assert.Equal(t, SeverityHigh, NormalizeSeverity("high"))
	assert.Equal(t, SeverityMedium, NormalizeSeverity("critical"))
}

func TestTotalEstimatedHours(t *testing.T) {
	outline := &SessionOutline{
		Sessions: []SessionOutlineItem{
			{EstimatedDurationMinutes: 60},
			{EstimatedDurationMinutes: 90},
			{EstimatedDurationMinutes: 30},
		},
	}
	assert.InDelta(t, 3.0, outline.TotalEstimatedHours(), 0.001)
}

func TestValidationResultPassed(t *testing.T) {
	result := &ValidationResult{
		Score: 80,
		Issues: []ValidationIssue{
			{ID: "issue_1", Severity: SeverityLow},
			{ID: "issue_2", Severity: SeverityMedium},
		},
	}
	assert.True(t, result.Passed())

	result.Issues = append(result.Issues, ValidationIssue{ID: "issue_3", Severity: SeverityHigh})
	assert.False(t, result.Passed())
}

func TestRunTitleFallback(t *testing.T) {
	run := NewRun("learn sql basics for analytics work")
	assert.Equal(t, "learn sql basics for analytics work", run.Title())

	run.SuggestedTitle = "SQL Foundations for Analysts"
	assert.Equal(t, "SQL Foundations for Analysts", run.Title())

	run.ConfirmedTitle = "My SQL Journey"
	assert.Equal(t, "My SQL Journey", run.Title())
}

func TestRunTitleTruncatesLongTopic(t *testing.T) {
	run := NewRun(strings.Repeat("a", 150))
	assert.Len(t, run.Title(), 100)
}

func TestBuildRoadmap(t *testing.T) {
	run := NewRun("learn sql")
	run.SuggestedTitle = "SQL Foundations"
	run.Outline = &SessionOutline{
		Summary: "A short path through SQL.",
		Sessions: []SessionOutlineItem{
			{ID: "s_1", EstimatedDurationMinutes: 120},
		},
	}
	run.Sessions = []ResearchedSession{{OutlineID: "s_1", Title: "Tables"}}

	rm := run.BuildRoadmap()
	assert.Equal(t, "SQL Foundations", rm.Title)
	assert.Equal(t, "A short path through SQL.", rm.Summary)
	assert.InDelta(t, 2.0, rm.TotalHours, 0.001)
	require.Len(t, rm.Sessions, 1)
}
