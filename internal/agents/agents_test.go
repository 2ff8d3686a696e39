package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/resources"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

func newTestSet(fake *llm.Fake, prober LinkProber) *Set {
	return New(fake, prober, zap.NewNop(), Options{MaxRetries: 2})
}

func questionsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"question": "Question %d?", "purpose": "context", "allows_freeform": true,
			"example_options": [{"label": "A", "text": "Answer A"}, {"label": "B", "text": "Answer B"}]}`, i+1)
	}
	return `{"questions": [` + strings.Join(parts, ",") + `]}`
}

func outlineJSON(sessions int) string {
	parts := make([]string, sessions)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"title": "Session %d", "objective": "Objective %d",
			"session_type": "concept", "estimated_duration_minutes": 60, "order": %d}`, i+1, i+1, i+1)
	}
	return `{"suggested_title": "SQL Foundations", "summary": "A short path through SQL.",
		"sessions": [` + strings.Join(parts, ",") + `]}`
}

func TestInterviewer_GenerateQuestions(t *testing.T) {
	fake := llm.NewFake().Reply(questionsJSON(4))
	set := newTestSet(fake, nil)

	questions, err := set.Interviewer.GenerateQuestions(context.Background(), "learn sql basics")
	require.NoError(t, err)
	require.Len(t, questions, 4)

	for _, q := range questions {
		assert.Regexp(t, `^q_[0-9a-f]{8}$`, q.ID)
		assert.NotEmpty(t, q.Question)
		assert.Len(t, q.ExampleOptions, 2)
	}
	assert.Equal(t, 1, fake.Calls())
	assert.Contains(t, fake.Prompts[0], "learn sql basics")
}

func TestInterviewer_RetriesOnSchemaViolation(t *testing.T) {
	// Two questions is below the structural bound; the wrapper should retry
	// with the violation named in the prompt.
	fake := llm.NewFake().Reply(questionsJSON(2)).Reply(questionsJSON(4))
	set := newTestSet(fake, nil)

	questions, err := set.Interviewer.GenerateQuestions(context.Background(), "learn sql")
	require.NoError(t, err)
	assert.Len(t, questions, 4)

	require.Equal(t, 2, fake.Calls())
	assert.Contains(t, fake.Prompts[1], "rejected")
	assert.Contains(t, fake.Prompts[1], "questions")
}

func TestInterviewer_ExhaustsRetries(t *testing.T) {
	fake := llm.NewFake().
		Reply(`{"broken": true}`).
		Fail(errors.New("transport reset")).
		Reply(`not even json`)
	set := newTestSet(fake, nil)

	_, err := set.Interviewer.GenerateQuestions(context.Background(), "learn sql")

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "interviewer", stageErr.Stage)
	assert.Equal(t, 3, stageErr.Attempts)
	assert.Equal(t, 3, fake.Calls())
}

func TestArchitect_DesignOutline(t *testing.T) {
	fake := llm.NewFake().Reply(outlineJSON(5))
	set := newTestSet(fake, nil)

	questions := []roadmap.InterviewQuestion{{ID: "q_1", Question: "Why?"}}
	answers := []roadmap.InterviewAnswer{{QuestionID: "q_1", Answer: "for analytics work"}}

	outline, err := set.Architect.DesignOutline(context.Background(), "learn sql", questions, answers)
	require.NoError(t, err)

	assert.Equal(t, "SQL Foundations", outline.SuggestedTitle)
	require.Len(t, outline.Sessions, 5)
	for i, s := range outline.Sessions {
		assert.Regexp(t, `^s_[0-9a-f]{8}$`, s.ID)
		assert.Equal(t, i+1, s.Order)
	}
	assert.Contains(t, fake.Prompts[0], "for analytics work")
}

func TestArchitect_RetriesOverBoundOutline(t *testing.T) {
	fake := llm.NewFake().Reply(outlineJSON(25)).Reply(outlineJSON(8))
	set := newTestSet(fake, nil)

	outline, err := set.Architect.DesignOutline(context.Background(), "learn sql", nil, nil)
	require.NoError(t, err)
	assert.Len(t, outline.Sessions, 8)
	assert.Equal(t, 2, fake.Calls())
}

func TestArchitect_NormalizesSessionTypesAndOrder(t *testing.T) {
	doc := `{"suggested_title": "SQL", "summary": "x", "sessions": [
		{"title": "C", "objective": "c", "session_type": "lecture", "estimated_duration_minutes": 60, "order": 9},
		{"title": "A", "objective": "a", "session_type": "tutorial", "estimated_duration_minutes": 60, "order": 2},
		{"title": "B", "objective": "b", "session_type": "practice", "estimated_duration_minutes": 60, "order": 5}]}`
	fake := llm.NewFake().Reply(doc)
	set := newTestSet(fake, nil)

	outline, err := set.Architect.DesignOutline(context.Background(), "learn sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, outline.Sessions, 3)

	assert.Equal(t, []string{"A", "B", "C"}, []string{
		outline.Sessions[0].Title, outline.Sessions[1].Title, outline.Sessions[2].Title})
	assert.Equal(t, []int{1, 2, 3}, []int{
		outline.Sessions[0].Order, outline.Sessions[1].Order, outline.Sessions[2].Order})
	assert.Equal(t, roadmap.SessionConcept, outline.Sessions[2].SessionType, "unknown type degrades to concept")
}

func TestResearcher_ResearchSession(t *testing.T) {
	fake := llm.NewFake().Reply(`{"content": "# Joins\nInner and outer joins.",
		"key_concepts": ["inner join"], "resources": ["postgres docs"], "exercises": ["join two tables"]}`)
	set := newTestSet(fake, nil)

	outline := &roadmap.SessionOutline{Sessions: []roadmap.SessionOutlineItem{
		{ID: "s_1", Title: "Joins", SessionType: roadmap.SessionTutorial, Order: 1, EstimatedDurationMinutes: 60, Objective: "learn joins"},
	}}

	session, err := set.Researcher.ResearchSession(context.Background(), "learn sql", outline, outline.Sessions[0], nil)
	require.NoError(t, err)

	assert.Equal(t, "s_1", session.OutlineID)
	assert.Equal(t, roadmap.SessionTutorial, session.SessionType)
	assert.Contains(t, session.Content, "Joins")
	assert.Contains(t, fake.Prompts[0], "step-by-step tutorial", "tutorial persona selected")
}

func TestResearcher_IncludesReviewFeedback(t *testing.T) {
	fake := llm.NewFake().Reply(`{"content": "rewritten"}`)
	set := newTestSet(fake, nil)

	outline := &roadmap.SessionOutline{Sessions: []roadmap.SessionOutlineItem{
		{ID: "s_1", Title: "Joins", SessionType: roadmap.SessionConcept, Order: 1},
	}}
	issues := []roadmap.ValidationIssue{{
		Category:    roadmap.IssueDepth,
		Severity:    roadmap.SeverityHigh,
		Description: "joins session too shallow",
	}}

	_, err := set.Researcher.ResearchSession(context.Background(), "learn sql", outline, outline.Sessions[0], issues)
	require.NoError(t, err)
	assert.Contains(t, fake.Prompts[0], "joins session too shallow")
}

func TestValidator_Review(t *testing.T) {
	fake := llm.NewFake().Reply(`{"score": 85, "summary": "solid roadmap", "issues": [
		{"category": "confusing", "severity": "critical", "description": "unclear progression", "affected_session_ids": ["s_2"]},
		{"category": "gap", "severity": "low", "description": "no indexing session"}]}`)
	set := newTestSet(fake, nil)

	outline := &roadmap.SessionOutline{Summary: "path"}
	result, err := set.Validator.Review(context.Background(), "learn sql", outline, nil)
	require.NoError(t, err)

	assert.Equal(t, 85, result.Score)
	require.Len(t, result.Issues, 2)
	assert.Regexp(t, `^issue_[0-9a-f]{8}$`, result.Issues[0].ID)
	assert.Equal(t, roadmap.IssueCoherence, result.Issues[0].Category, "unknown category degrades")
	assert.Equal(t, roadmap.SeverityMedium, result.Issues[0].Severity, "unknown severity degrades")
	assert.Equal(t, roadmap.IssueGap, result.Issues[1].Category)
	assert.True(t, result.Passed())
}

func TestValidator_PromptTruncatesOnRuneBoundary(t *testing.T) {
	fake := llm.NewFake().Reply(`{"score": 80, "summary": "ok", "issues": []}`)
	set := newTestSet(fake, nil)

	// A two-byte rune straddles the 1500-byte cap; the cut must back up to
	// the rune boundary instead of splitting it.
	content := strings.Repeat("a", 1499) + "é" + strings.Repeat("b", 200)
	sessions := []roadmap.ResearchedSession{
		{OutlineID: "s_1", Title: "Joins", SessionType: roadmap.SessionConcept, Order: 1, Content: content},
	}

	_, err := set.Validator.Review(context.Background(), "learn sql", &roadmap.SessionOutline{Summary: "path"}, sessions)
	require.NoError(t, err)

	require.Len(t, fake.Prompts, 1)
	assert.True(t, utf8.ValidString(fake.Prompts[0]))
	assert.NotContains(t, fake.Prompts[0], "é", "straddling rune dropped whole")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 1500))
	assert.Equal(t, "ab…", truncate("abcd", 2))

	cut := truncate(strings.Repeat("a", 3)+"日本語", 4)
	assert.Equal(t, "aaa…", cut, "multi-byte rune at the cap dropped whole")
	assert.True(t, utf8.ValidString(cut))
}

type fakeProber struct {
	infos map[string]resources.PageInfo
}

func (p *fakeProber) Probe(_ context.Context, rawURL string) (resources.PageInfo, error) {
	info, ok := p.infos[rawURL]
	if !ok {
		return resources.PageInfo{}, errors.New("unreachable")
	}
	return info, nil
}

func TestResourceFinder_ProbesAndTruncates(t *testing.T) {
	fake := llm.NewFake().Reply(`{"videos": [
		{"url": "https://v.example/1", "title": "One"},
		{"url": "https://v.example/dead", "title": "Dead"},
		{"url": "https://v.example/2", "title": ""},
		{"url": "https://v.example/3", "title": "Three"},
		{"url": "https://v.example/4", "title": "Four"}]}`)
	prober := &fakeProber{infos: map[string]resources.PageInfo{
		"https://v.example/1": {Title: "Probed One"},
		"https://v.example/2": {Title: "Probed Two", ThumbnailURL: "https://img/2.jpg"},
		"https://v.example/3": {},
		"https://v.example/4": {},
	}}
	set := newTestSet(fake, prober)

	session := &roadmap.ResearchedSession{OutlineID: "s_1", Title: "Joins", KeyConcepts: []string{"join"}}
	videos, err := set.ResourceFinder.FindResources(context.Background(), "learn sql", session)
	require.NoError(t, err)

	require.Len(t, videos, 3, "dead link dropped, capped at three")
	assert.Equal(t, "One", videos[0].Title, "model title wins when present")
	assert.Equal(t, "Probed Two", videos[1].Title, "probe fills missing title")
	assert.Equal(t, "https://img/2.jpg", videos[1].ThumbnailURL)
	assert.Equal(t, "Three", videos[2].Title)
}

func TestResourceFinder_EmptyResultIsValid(t *testing.T) {
	fake := llm.NewFake().Reply(`{"videos": []}`)
	set := newTestSet(fake, nil)

	videos, err := set.ResourceFinder.FindResources(context.Background(), "learn sql",
		&roadmap.ResearchedSession{OutlineID: "s_1"})
	require.NoError(t, err)
	assert.Empty(t, videos)
}
