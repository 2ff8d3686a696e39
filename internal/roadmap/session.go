package roadmap

// VideoResource is a video or link found for a session by the resource
// finder.
type VideoResource struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	Channel         string `json:"channel,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Description     string `json:"description,omitempty"`
}

// ResearchedSession is the full content for one session produced by the
// researcher, plus any videos attached later by the resource finder.
type ResearchedSession struct {
	OutlineID   string          `json:"outline_id"`
	Title       string          `json:"title"`
	SessionType SessionType     `json:"session_type"`
	Order       int             `json:"order"`
	Content     string          `json:"content"`
	KeyConcepts []string        `json:"key_concepts,omitempty"`
	Resources   []string        `json:"resources,omitempty"`
	Exercises   []string        `json:"exercises,omitempty"`
	Videos      []VideoResource `json:"videos,omitempty"`
}
