package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
	"github.com/jonathan/roadmap-agent/internal/schemas"
)

// Architect turns the topic and interview answers into a titled session
// outline.
type Architect struct {
	caller *caller
}

type outlineSessionPayload struct {
	Title                    string   `json:"title"`
	Objective                string   `json:"objective"`
	SessionType              string   `json:"session_type"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
	Prerequisites            []string `json:"prerequisites"`
	Order                    int      `json:"order"`
}

// DesignOutline produces the session outline. Session ids are assigned here,
// session types are normalized (unknown types degrade to concept), and
// ordering is made contiguous.
func (a *Architect) DesignOutline(ctx context.Context, topic string, questions []roadmap.InterviewQuestion, answers []roadmap.InterviewAnswer) (*roadmap.SessionOutline, error) {
	prompt := buildOutlinePrompt(topic, questions, answers)

	var out struct {
		SuggestedTitle string                  `json:"suggested_title"`
		Summary        string                  `json:"summary"`
		Sessions       []outlineSessionPayload `json:"sessions"`
	}
	if err := a.caller.generateValidated(ctx, "architect", prompt, llm.TierAdvanced, schemas.SessionOutline, &out); err != nil {
		return nil, err
	}

	outline := &roadmap.SessionOutline{
		SuggestedTitle: out.SuggestedTitle,
		Summary:        out.Summary,
		Sessions:       make([]roadmap.SessionOutlineItem, 0, len(out.Sessions)),
	}
	for _, s := range out.Sessions {
		outline.Sessions = append(outline.Sessions, roadmap.SessionOutlineItem{
			ID:                       roadmap.NewSessionID(),
			Title:                    s.Title,
			Objective:                s.Objective,
			SessionType:              roadmap.NormalizeSessionType(s.SessionType),
			EstimatedDurationMinutes: s.EstimatedDurationMinutes,
			Prerequisites:            s.Prerequisites,
			Order:                    s.Order,
		})
	}

	// Model-provided order values may have gaps or ties; make them
	// contiguous starting at 1.
	sort.SliceStable(outline.Sessions, func(i, j int) bool {
		return outline.Sessions[i].Order < outline.Sessions[j].Order
	})
	for i := range outline.Sessions {
		outline.Sessions[i].Order = i + 1
	}

	return outline, nil
}

func buildOutlinePrompt(topic string, questions []roadmap.InterviewQuestion, answers []roadmap.InterviewAnswer) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are an expert curriculum designer. Design a session-based learning roadmap.

Topic: %q

The learner answered these clarifying questions:
`, topic)

	byID := make(map[string]string, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a.Answer
	}
	for _, q := range questions {
		fmt.Fprintf(&sb, "- Q: %s\n  A: %s\n", q.Question, byID[q.ID])
	}

	sb.WriteString(`
Produce:
- "suggested_title": a roadmap title of 3 to 8 words
- "summary": 2 or 3 sentences describing the learning path
- "sessions": 3 to 20 sessions, each with "title", "objective",
  "session_type" (one of concept, tutorial, practice, project, review),
  "estimated_duration_minutes" (30 to 180), "prerequisites" (titles of
  earlier sessions it builds on), and "order" (1-based position)

Sessions must progress from fundamentals to applied work, sized for the time the learner said they have.

Return a JSON object with exactly those fields.`)

	return sb.String()
}
