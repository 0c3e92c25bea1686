// Package service reads the challenge catalog.
package service

import (
	"context"
	"net/url"
	"strconv"

	"focusbuddy/internal/api"
	"focusbuddy/internal/challenge/domain"
)

// Service wraps the challenge catalog endpoints. Progress reporting goes
// through the user service since progress belongs to a user.
type Service struct {
	client *api.Client
}

// NewService returns a challenge service over the authenticated pipeline.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// ListFilter narrows a catalog listing. Zero-valued fields are omitted.
type ListFilter struct {
	Type      domain.ChallengeType
	IsLimited *bool
}

// List returns challenges matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.Challenge, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("challenge_type", string(filter.Type))
	}
	if filter.IsLimited != nil {
		query.Set("is_limited", strconv.FormatBool(*filter.IsLimited))
	}
	var out []domain.Challenge
	if err := s.client.GetJSON(ctx, "/challenges/", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Daily returns today's rotating challenges.
func (s *Service) Daily(ctx context.Context) ([]domain.Challenge, error) {
	var out []domain.Challenge
	if err := s.client.GetJSON(ctx, "/challenges/daily", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Milestones returns the milestone-typed challenges.
func (s *Service) Milestones(ctx context.Context) ([]domain.Challenge, error) {
	var out []domain.Challenge
	if err := s.client.GetJSON(ctx, "/challenges/milestones", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one challenge by ID.
func (s *Service) Get(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	var c domain.Challenge
	if err := s.client.GetJSON(ctx, api.JoinPath("challenges", challengeID), nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create publishes a challenge (admin only server-side).
func (s *Service) Create(ctx context.Context, c domain.Challenge) (*domain.Challenge, error) {
	var created domain.Challenge
	if err := s.client.PostJSON(ctx, "/challenges/", c, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SeedDefaults asks the server to install its default daily challenges.
func (s *Service) SeedDefaults(ctx context.Context) error {
	return s.client.PostJSON(ctx, "/challenges/daily/seed-default", nil, nil)
}
