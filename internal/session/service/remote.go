// Package service drives the study-session lifecycle: creation, liveness
// heartbeats, pause/resume, completion, and recovery of an unfinished
// session after a restart.
package service

import (
	"context"

	"focusbuddy/internal/api"
	"focusbuddy/internal/session/domain"
)

// API is the remote study-session surface the controller drives.
type API interface {
	Create(ctx context.Context, tasks []domain.Task, plannedDuration int) (*domain.StudySession, error)
	Heartbeat(ctx context.Context, sessionID string) error
	Pause(ctx context.Context, sessionID string) error
	Resume(ctx context.Context, sessionID string) error
	Complete(ctx context.Context, sessionID string, actualDuration, distractionsBlocked int, notes string) error
	LastActive(ctx context.Context) (*domain.StudySession, error)
	List(ctx context.Context) ([]domain.StudySession, error)
	Get(ctx context.Context, sessionID string) (*domain.StudySession, error)
}

// Remote implements API over the authenticated request pipeline.
type Remote struct {
	client *api.Client
}

// NewRemote returns a Remote backed by the given pipeline client.
func NewRemote(client *api.Client) *Remote {
	return &Remote{client: client}
}

type createRequest struct {
	Tasks           []domain.Task `json:"tasks"`
	PlannedDuration int           `json:"planned_duration"`
}

type completeRequest struct {
	ActualDuration      int     `json:"actual_duration"`
	DistractionsBlocked int     `json:"distractions_blocked"`
	Notes               *string `json:"notes"`
}

// Create starts a session on the server and returns its record.
func (r *Remote) Create(ctx context.Context, tasks []domain.Task, plannedDuration int) (*domain.StudySession, error) {
	var s domain.StudySession
	err := r.client.PostJSON(ctx, "/study-sessions/", createRequest{
		Tasks:           tasks,
		PlannedDuration: plannedDuration,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Heartbeat asserts liveness for the session.
func (r *Remote) Heartbeat(ctx context.Context, sessionID string) error {
	return r.client.PostJSON(ctx, api.JoinPath("study-sessions", sessionID, "heartbeat"), nil, nil)
}

// Pause marks the session paused on the server.
func (r *Remote) Pause(ctx context.Context, sessionID string) error {
	return r.client.PostJSON(ctx, api.JoinPath("study-sessions", sessionID, "pause"), nil, nil)
}

// Resume clears the pause on the server.
func (r *Remote) Resume(ctx context.Context, sessionID string) error {
	return r.client.PostJSON(ctx, api.JoinPath("study-sessions", sessionID, "resume"), nil, nil)
}

// Complete closes the session with its final numbers.
func (r *Remote) Complete(ctx context.Context, sessionID string, actualDuration, distractionsBlocked int, notes string) error {
	req := completeRequest{
		ActualDuration:      actualDuration,
		DistractionsBlocked: distractionsBlocked,
	}
	if notes != "" {
		req.Notes = &notes
	}
	return r.client.PostJSON(ctx, api.JoinPath("study-sessions", sessionID, "complete"), req, nil)
}

// LastActive returns the user's unfinished session, or nil when none exists.
func (r *Remote) LastActive(ctx context.Context) (*domain.StudySession, error) {
	var s domain.StudySession
	if err := r.client.GetJSON(ctx, "/study-sessions/last-active-session", nil, &s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, nil
	}
	return &s, nil
}

// List returns the user's sessions, most recent first.
func (r *Remote) List(ctx context.Context) ([]domain.StudySession, error) {
	var out []domain.StudySession
	if err := r.client.GetJSON(ctx, "/study-sessions/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one session by ID.
func (r *Remote) Get(ctx context.Context, sessionID string) (*domain.StudySession, error) {
	var s domain.StudySession
	if err := r.client.GetJSON(ctx, api.JoinPath("study-sessions", sessionID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
