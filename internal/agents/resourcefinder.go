package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/resources"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
	"github.com/jonathan/roadmap-agent/internal/schemas"
)

// maxVideosPerSession caps how many videos one session keeps.
const maxVideosPerSession = 3

// LinkProber verifies that a candidate URL resolves and extracts page
// metadata. Implemented by resources.Prober.
type LinkProber interface {
	Probe(ctx context.Context, rawURL string) (resources.PageInfo, error)
}

// ResourceFinder suggests videos and links for a researched session. It is
// the one stage whose failure never fails a run; callers fall back to an
// empty list.
type ResourceFinder struct {
	caller *caller
	prober LinkProber
}

type videoPayload struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	ThumbnailURL    string `json:"thumbnail_url"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
}

// FindResources returns up to three verified videos for the session. An
// empty result is valid. Probe failures silently drop the link; only the
// generation call itself can error.
func (a *ResourceFinder) FindResources(ctx context.Context, topic string, session *roadmap.ResearchedSession) ([]roadmap.VideoResource, error) {
	prompt := buildResourcePrompt(topic, session)

	var out struct {
		Videos []videoPayload `json:"videos"`
	}
	stage := fmt.Sprintf("resource_finder:%s", session.OutlineID)
	if err := a.caller.generateValidated(ctx, stage, prompt, llm.TierLite, schemas.SessionResources, &out); err != nil {
		return nil, err
	}

	videos := make([]roadmap.VideoResource, 0, maxVideosPerSession)
	for _, v := range out.Videos {
		if len(videos) == maxVideosPerSession {
			break
		}
		video := roadmap.VideoResource{
			URL:             v.URL,
			Title:           v.Title,
			Channel:         v.Channel,
			ThumbnailURL:    v.ThumbnailURL,
			DurationMinutes: v.DurationMinutes,
			Description:     v.Description,
		}
		if a.prober != nil {
			info, err := a.prober.Probe(ctx, v.URL)
			if err != nil {
				a.caller.logger.Debug("dropping unreachable resource",
					zap.String("session", session.OutlineID),
					zap.String("url", v.URL),
					zap.Error(err))
				continue
			}
			if video.Title == "" && info.Title != "" {
				video.Title = info.Title
			}
			if video.ThumbnailURL == "" && info.ThumbnailURL != "" {
				video.ThumbnailURL = info.ThumbnailURL
			}
			if video.Description == "" && info.Description != "" {
				video.Description = info.Description
			}
		}
		videos = append(videos, video)
	}
	return videos, nil
}

func buildResourcePrompt(topic string, session *roadmap.ResearchedSession) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Find up to %d high-quality videos or video-based resources for a learning session.

Overall topic: %q
Session: %q (%s)
Key concepts: %s

For each video return "url", "title", "channel", "thumbnail_url", "duration_minutes" and a one-sentence "description". Only include resources you are confident exist at the given URL. An empty list is acceptable.

Return a JSON object: {"videos": [...]}`,
		maxVideosPerSession, topic, session.Title, session.SessionType, strings.Join(session.KeyConcepts, ", "))
	return sb.String()
}
