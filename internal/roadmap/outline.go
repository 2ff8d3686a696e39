package roadmap

// SessionType classifies what kind of learning activity a session is. It
// routes each session to a type-specific research prompt.
type SessionType string

// Known session types. Anything else degrades to SessionConcept.
const (
	SessionConcept  SessionType = "concept"
	SessionTutorial SessionType = "tutorial"
	SessionPractice SessionType = "practice"
	SessionProject  SessionType = "project"
	SessionReview   SessionType = "review"
)

// NormalizeSessionType maps an arbitrary string onto a known session type,
// falling back to SessionConcept.
func NormalizeSessionType(s string) SessionType {
	switch SessionType(s) {
	case SessionConcept, SessionTutorial, SessionPractice, SessionProject, SessionReview:
		return SessionType(s)
	default:
		return SessionConcept
	}
}

// SessionOutlineItem is one planned session in the architect's outline.
type SessionOutlineItem struct {
	ID                       string      `json:"id"`
	Title                    string      `json:"title"`
	Objective                string      `json:"objective"`
	SessionType              SessionType `json:"session_type"`
	EstimatedDurationMinutes int         `json:"estimated_duration_minutes"`
	Prerequisites            []string    `json:"prerequisites,omitempty"`
	Order                    int         `json:"order"`
}

// SessionOutline is the architect's plan for the whole roadmap.
type SessionOutline struct {
	SuggestedTitle string               `json:"suggested_title"`
	Summary        string               `json:"summary"`
	Sessions       []SessionOutlineItem `json:"sessions"`
}

// TotalEstimatedHours derives the total time commitment from per-session
// duration estimates.
func (o *SessionOutline) TotalEstimatedHours() float64 {
	minutes := 0
	for _, s := range o.Sessions {
		minutes += s.EstimatedDurationMinutes
	}
	return float64(minutes) / 60.0
}

// Item returns the outline item with the given id, or nil.
func (o *SessionOutline) Item(id string) *SessionOutlineItem {
	for i := range o.Sessions {
		if o.Sessions[i].ID == id {
			return &o.Sessions[i]
		}
	}
	return nil
}
