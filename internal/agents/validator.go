package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
	"github.com/jonathan/roadmap-agent/internal/schemas"
)

// Validator reviews the whole assembled roadmap for overlap, gaps, ordering
// problems, coherence and depth.
type Validator struct {
	caller *caller
}

type issuePayload struct {
	Category           string   `json:"category"`
	Severity           string   `json:"severity"`
	Description        string   `json:"description"`
	SuggestedFix       string   `json:"suggested_fix"`
	AffectedSessionIDs []string `json:"affected_session_ids"`
}

// Review scores the roadmap and lists issues. Unknown categories degrade to
// coherence and unknown severities to medium; issue ids are assigned here.
func (a *Validator) Review(ctx context.Context, topic string, outline *roadmap.SessionOutline, sessions []roadmap.ResearchedSession) (*roadmap.ValidationResult, error) {
	prompt := buildValidationPrompt(topic, outline, sessions)

	var out struct {
		Score   int            `json:"score"`
		Summary string         `json:"summary"`
		Issues  []issuePayload `json:"issues"`
	}
	if err := a.caller.generateValidated(ctx, "validator", prompt, llm.TierAdvanced, schemas.ValidationReport, &out); err != nil {
		return nil, err
	}

	result := &roadmap.ValidationResult{
		Score:   out.Score,
		Summary: out.Summary,
		Issues:  make([]roadmap.ValidationIssue, 0, len(out.Issues)),
	}
	for _, issue := range out.Issues {
		result.Issues = append(result.Issues, roadmap.ValidationIssue{
			ID:                 roadmap.NewIssueID(),
			Category:           roadmap.NormalizeCategory(issue.Category),
			Severity:           roadmap.NormalizeSeverity(issue.Severity),
			Description:        issue.Description,
			SuggestedFix:       issue.SuggestedFix,
			AffectedSessionIDs: issue.AffectedSessionIDs,
		})
	}
	return result, nil
}

func buildValidationPrompt(topic string, outline *roadmap.SessionOutline, sessions []roadmap.ResearchedSession) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a curriculum reviewer. Assess this learning roadmap for the topic %q.

Outline summary: %s

Sessions:
`, topic, outline.Summary)

	for _, s := range sessions {
		content := truncate(s.Content, 1500)
		fmt.Fprintf(&sb, "--- session id %s, position %d: %s (%s)\nKey concepts: %s\n%s\n",
			s.OutlineID, s.Order, s.Title, s.SessionType, strings.Join(s.KeyConcepts, ", "), content)
	}

	sb.WriteString(`
Evaluate:
- overlap: sessions repeating the same material
- gap: missing steps between sessions
- ordering: sessions that assume material taught later
- coherence: sessions that don't serve the stated goal
- depth: sessions too shallow or too deep for their position

Return a JSON object with:
- "score": overall quality, 0 to 100
- "summary": 2 or 3 sentences
- "issues": findings, each with "category" (overlap|gap|ordering|coherence|depth), "severity" (low|medium|high), "description", "suggested_fix", and "affected_session_ids" (the session ids listed above)`)

	return sb.String()
}

// truncate caps s at limit bytes, backing up to a rune boundary so the cut
// never produces invalid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
