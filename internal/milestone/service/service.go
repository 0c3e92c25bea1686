// Package service reads the milestone catalog.
package service

import (
	"context"

	"focusbuddy/internal/api"
	"focusbuddy/internal/milestone/domain"
)

// Service wraps the milestone catalog endpoints. Claiming a tier goes
// through the user service since rewards credit the user's balance.
type Service struct {
	client *api.Client
}

// NewService returns a milestone service over the authenticated pipeline.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List returns all milestone ladders.
func (s *Service) List(ctx context.Context) ([]domain.Milestone, error) {
	var out []domain.Milestone
	if err := s.client.GetJSON(ctx, "/milestones/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one milestone by ID.
func (s *Service) Get(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	var m domain.Milestone
	if err := s.client.GetJSON(ctx, api.JoinPath("milestones", milestoneID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create publishes a milestone ladder (admin only server-side).
func (s *Service) Create(ctx context.Context, m domain.Milestone) (*domain.Milestone, error) {
	var created domain.Milestone
	if err := s.client.PostJSON(ctx, "/milestones/", m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SeedDefaults asks the server to install its default ladders.
func (s *Service) SeedDefaults(ctx context.Context) error {
	return s.client.PostJSON(ctx, "/milestones/seed-default", nil, nil)
}
