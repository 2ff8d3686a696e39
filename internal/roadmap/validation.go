package roadmap

// IssueCategory classifies a validation finding.
type IssueCategory string

// Known issue categories. Anything else degrades to IssueCoherence.
const (
	IssueOverlap   IssueCategory = "overlap"
	IssueGap       IssueCategory = "gap"
	IssueOrdering  IssueCategory = "ordering"
	IssueCoherence IssueCategory = "coherence"
	IssueDepth     IssueCategory = "depth"
)

// NormalizeCategory maps an arbitrary string onto a known category, falling
// back to IssueCoherence.
func NormalizeCategory(s string) IssueCategory {
	switch IssueCategory(s) {
	case IssueOverlap, IssueGap, IssueOrdering, IssueCoherence, IssueDepth:
		return IssueCategory(s)
	default:
		return IssueCoherence
	}
}

// IssueSeverity grades how serious a validation finding is.
type IssueSeverity string

// Issue severities. Unknown values degrade to SeverityMedium.
const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// NormalizeSeverity maps an arbitrary string onto a known severity, falling
// back to SeverityMedium.
func NormalizeSeverity(s string) IssueSeverity {
	switch IssueSeverity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return IssueSeverity(s)
	default:
		return SeverityMedium
	}
}

// ValidationIssue is one finding from the validator stage.
type ValidationIssue struct {
	ID                 string        `json:"id"`
	Category           IssueCategory `json:"category"`
	Severity           IssueSeverity `json:"severity"`
	Description        string        `json:"description"`
	SuggestedFix       string        `json:"suggested_fix,omitempty"`
	AffectedSessionIDs []string      `json:"affected_session_ids,omitempty"`
}

// ValidationResult is the validator's assessment of the whole roadmap.
type ValidationResult struct {
	Score   int               `json:"score"`
	Summary string            `json:"summary"`
	Issues  []ValidationIssue `json:"issues"`
}

// Passed reports whether the roadmap has no high-severity issues.
func (r *ValidationResult) Passed() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityHigh {
			return false
		}
	}
	return true
}

// Issue returns the issue with the given id, or nil.
func (r *ValidationResult) Issue(id string) *ValidationIssue {
	for i := range r.Issues {
		if r.Issues[i].ID == id {
			return &r.Issues[i]
		}
	}
	return nil
}
