package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

// RoadmapRecord is a stored roadmap row.
type RoadmapRecord struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Topic      string    `json:"topic"`
	Summary    string    `json:"summary"`
	TotalHours float64   `json:"total_hours"`
	CreatedAt  string    `json:"created_at"`
}

// SaveRoadmap stores a finished roadmap and its sessions in one transaction
// and returns the new roadmap id. Implements pipeline.Store.
func (db *DB) SaveRoadmap(ctx context.Context, rm *roadmap.Roadmap) (string, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO roadmaps (title, topic, summary, total_hours)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		rm.Title, rm.Topic, rm.Summary, rm.TotalHours,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert roadmap: %w", err)
	}

	for _, session := range rm.Sessions {
		keyConcepts, err := json.Marshal(session.KeyConcepts)
		if err != nil {
			return "", fmt.Errorf("failed to marshal key concepts: %w", err)
		}
		exercises, err := json.Marshal(session.Exercises)
		if err != nil {
			return "", fmt.Errorf("failed to marshal exercises: %w", err)
		}
		resources, err := json.Marshal(session.Resources)
		if err != nil {
			return "", fmt.Errorf("failed to marshal resources: %w", err)
		}
		videos, err := json.Marshal(session.Videos)
		if err != nil {
			return "", fmt.Errorf("failed to marshal videos: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO roadmap_sessions
			 (roadmap_id, position, title, session_type, content, key_concepts, exercises, resources, videos)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, session.Order, session.Title, string(session.SessionType),
			session.Content, keyConcepts, exercises, resources, videos,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert session %d: %w", session.Order, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit roadmap: %w", err)
	}
	return id.String(), nil
}

// GetRoadmap retrieves a roadmap with its sessions, or nil when absent.
func (db *DB) GetRoadmap(ctx context.Context, id uuid.UUID) (*RoadmapRecord, []roadmap.ResearchedSession, error) {
	var record RoadmapRecord
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, topic, summary, total_hours, created_at::text
		 FROM roadmaps WHERE id = $1`,
		id,
	).Scan(&record.ID, &record.Title, &record.Topic, &record.Summary, &record.TotalHours, &record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get roadmap: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT position, title, session_type, content, key_concepts, exercises, resources, videos
		 FROM roadmap_sessions WHERE roadmap_id = $1 ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []roadmap.ResearchedSession
	for rows.Next() {
		var s roadmap.ResearchedSession
		var sessionType string
		var keyConcepts, exercises, resources, videos []byte
		if err := rows.Scan(&s.Order, &s.Title, &sessionType, &s.Content,
			&keyConcepts, &exercises, &resources, &videos); err != nil {
			return nil, nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.SessionType = roadmap.SessionType(sessionType)
		if err := json.Unmarshal(keyConcepts, &s.KeyConcepts); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal key concepts: %w", err)
		}
		if err := json.Unmarshal(exercises, &s.Exercises); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal exercises: %w", err)
		}
		if err := json.Unmarshal(resources, &s.Resources); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal resources: %w", err)
		}
		if err := json.Unmarshal(videos, &s.Videos); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal videos: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return &record, sessions, nil
}

// ListRoadmaps retrieves recent roadmaps, newest first.
func (db *DB) ListRoadmaps(ctx context.Context, limit int) ([]RoadmapRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, topic, summary, total_hours, created_at::text
		 FROM roadmaps ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w", err)
	}
	defer rows.Close()

	var records []RoadmapRecord
	for rows.Next() {
		var r RoadmapRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Topic, &r.Summary, &r.TotalHours, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roadmap: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roadmaps: %w", err)
	}
	return records, nil
}

// DeleteRoadmap deletes a roadmap and its sessions (via cascade).
func (db *DB) DeleteRoadmap(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM roadmaps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete roadmap: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("roadmap not found: %s", id)
	}
	return nil
}
