package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
	"github.com/jonathan/roadmap-agent/internal/schemas"
)

// Researcher writes the full content for one outlined session. Calls are
// independent of each other so the orchestrator can fan them out.
type Researcher struct {
	caller *caller
}

// researcherPersonas give each session type its own register: a concept
// session reads differently from a project brief.
var researcherPersonas = map[roadmap.SessionType]string{
	roadmap.SessionConcept:  "You are an educator who explains foundational concepts with precise definitions, analogies, and short worked examples.",
	roadmap.SessionTutorial: "You are a hands-on instructor writing a step-by-step tutorial the learner can follow along with, with commands or code at every step.",
	roadmap.SessionPractice: "You are a coach designing focused practice. Favor many small exercises over exposition, each with a hint and an expected outcome.",
	roadmap.SessionProject:  "You are a mentor writing a project brief: a goal, milestones, acceptance criteria, and stretch goals.",
	roadmap.SessionReview:   "You are a tutor writing a review session: recall prompts, a self-assessment checklist, and pointers back to weak spots.",
}

// ResearchSession produces the content for one session. issues, when
// non-empty, carries reviewer feedback driving a remediation rewrite.
func (a *Researcher) ResearchSession(ctx context.Context, topic string, outline *roadmap.SessionOutline, item roadmap.SessionOutlineItem, issues []roadmap.ValidationIssue) (*roadmap.ResearchedSession, error) {
	prompt := buildResearchPrompt(topic, outline, item, issues)

	var out struct {
		Content     string   `json:"content"`
		KeyConcepts []string `json:"key_concepts"`
		Resources   []string `json:"resources"`
		Exercises   []string `json:"exercises"`
	}
	stage := fmt.Sprintf("researcher:%s", item.ID)
	if err := a.caller.generateValidated(ctx, stage, prompt, llm.TierStandard, schemas.ResearchedSession, &out); err != nil {
		return nil, err
	}

	return &roadmap.ResearchedSession{
		OutlineID:   item.ID,
		Title:       item.Title,
		SessionType: item.SessionType,
		Order:       item.Order,
		Content:     out.Content,
		KeyConcepts: out.KeyConcepts,
		Resources:   out.Resources,
		Exercises:   out.Exercises,
	}, nil
}

func buildResearchPrompt(topic string, outline *roadmap.SessionOutline, item roadmap.SessionOutlineItem, issues []roadmap.ValidationIssue) string {
	persona, ok := researcherPersonas[item.SessionType]
	if !ok {
		persona = researcherPersonas[roadmap.SessionConcept]
	}

	var sb strings.Builder
	sb.WriteString(persona)
	fmt.Fprintf(&sb, `

The learner's overall topic is %q. The full roadmap outline, for context:
`, topic)
	for _, s := range outline.Sessions {
		marker := " "
		if s.ID == item.ID {
			marker = ">"
		}
		fmt.Fprintf(&sb, "%s %d. %s (%s, %d min): %s\n", marker, s.Order, s.Title, s.SessionType, s.EstimatedDurationMinutes, s.Objective)
	}

	fmt.Fprintf(&sb, `
Write the session marked with ">": %q.
Objective: %s
Planned length: %d minutes.
`, item.Title, item.Objective, item.EstimatedDurationMinutes)

	if len(issues) > 0 {
		sb.WriteString("\nA quality review flagged problems this rewrite must fix:\n")
		for _, issue := range issues {
			fmt.Fprintf(&sb, "- [%s/%s] %s", issue.Category, issue.Severity, issue.Description)
			if issue.SuggestedFix != "" {
				fmt.Fprintf(&sb, " (suggested fix: %s)", issue.SuggestedFix)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(`
Return a JSON object with:
- "content": the full session in markdown, sized to the planned length
- "key_concepts": the ideas the learner should retain
- "resources": names or URLs of reference material worth reading
- "exercises": concrete things for the learner to do`)

	return sb.String()
}
