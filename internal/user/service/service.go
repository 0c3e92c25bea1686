// Package service exposes the signed-in user's reward and settings
// operations: coins, challenge progress, milestone tiers, shop
// purchases, focus-time stats, and the blocked-website list.
package service

import (
	"context"
	"errors"
	"log/slog"

	"focusbuddy/internal/api"
	"focusbuddy/internal/state"
	"focusbuddy/internal/user/domain"
)

// ErrNotSignedIn is returned when an operation needs the current user
// and none is cached.
var ErrNotSignedIn = errors.New("no signed-in user")

// Service wraps the per-user endpoints. Operations that change
// server-derived reward fields re-fetch the whole user record instead of
// patching the cache by hand.
type Service struct {
	client *api.Client
	state  *state.Store
	log    *slog.Logger
}

// NewService returns a user service over the authenticated pipeline.
func NewService(client *api.Client, st *state.Store, log *slog.Logger) *Service {
	return &Service{client: client, state: st, log: log}
}

func (s *Service) userID() (string, error) {
	u := s.state.CurrentUser()
	if u == nil {
		return "", ErrNotSignedIn
	}
	return u.ID, nil
}

// Fetch loads /users/me and caches the result.
func (s *Service) Fetch(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := s.client.GetJSON(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	s.state.SetUser(&u)
	return &u, nil
}

// FetchUser refreshes the cached user. It satisfies the refresher
// interface the session controller uses after completion.
func (s *Service) FetchUser(ctx context.Context) error {
	_, err := s.Fetch(ctx)
	return err
}

// AddCoins credits coins to the user and caches the updated record the
// server returns.
func (s *Service) AddCoins(ctx context.Context, amount int) (*domain.User, error) {
	id, err := s.userID()
	if err != nil {
		return nil, err
	}
	body := struct {
		Amount int `json:"amount"`
	}{Amount: amount}
	var u domain.User
	if err := s.client.PostJSON(ctx, api.JoinPath("users", id, "add-coins"), body, &u); err != nil {
		return nil, err
	}
	s.state.SetUser(&u)
	return &u, nil
}

// UpdateChallengeProgress reports progress on a challenge and returns
// the server's view of the user's entry for it.
func (s *Service) UpdateChallengeProgress(ctx context.Context, challengeID string, progress int) (*domain.ChallengeProgress, error) {
	id, err := s.userID()
	if err != nil {
		return nil, err
	}
	body := struct {
		Progress int `json:"progress"`
	}{Progress: progress}
	var cp domain.ChallengeProgress
	if err := s.client.PostJSON(ctx, api.JoinPath("users", id, "challenges", challengeID, "progress"), body, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// ClaimMilestoneTier claims a reached tier's reward, then re-fetches the
// user so coin and milestone fields reflect the claim.
func (s *Service) ClaimMilestoneTier(ctx context.Context, milestoneID, tierName string) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	body := struct {
		TierName string `json:"tier_name"`
	}{TierName: tierName}
	if err := s.client.PostJSON(ctx, api.JoinPath("users", id, "milestones", milestoneID, "claim-tier"), body, nil); err != nil {
		return err
	}
	return s.FetchUser(ctx)
}

// PurchaseItem buys a shop item with the user's coins, then re-fetches
// the user for the new balance and inventory.
func (s *Service) PurchaseItem(ctx context.Context, itemID string) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	if err := s.client.PostJSON(ctx, api.JoinPath("users", id, "shop", "items", itemID, "purchase"), nil, nil); err != nil {
		return err
	}
	return s.FetchUser(ctx)
}

// UpdateFocusTime adds focused minutes to the user's stats, then
// re-fetches the user for the recomputed aggregates.
func (s *Service) UpdateFocusTime(ctx context.Context, minutes int) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	body := struct {
		Minutes int `json:"minutes"`
	}{Minutes: minutes}
	if err := s.client.PostJSON(ctx, api.JoinPath("users", id, "stats", "update-focus"), body, nil); err != nil {
		return err
	}
	return s.FetchUser(ctx)
}

type websiteRequest struct {
	Website string `json:"website"`
}

// AddBlockedWebsite adds a site to the user's block list.
func (s *Service) AddBlockedWebsite(ctx context.Context, website string) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	if err := s.client.PostJSON(ctx, api.JoinPath("users", id, "blocked-websites", "add"), websiteRequest{Website: website}, nil); err != nil {
		return err
	}
	if u := s.state.CurrentUser(); u != nil {
		u.BlockedWebsites = append(u.BlockedWebsites, website)
		s.state.SetUser(u)
	}
	return nil
}

// RemoveBlockedWebsite removes a site from the user's block list.
func (s *Service) RemoveBlockedWebsite(ctx context.Context, website string) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	if err := s.client.DeleteJSON(ctx, api.JoinPath("users", id, "blocked-websites", "remove"), websiteRequest{Website: website}, nil); err != nil {
		return err
	}
	if u := s.state.CurrentUser(); u != nil {
		kept := u.BlockedWebsites[:0]
		for _, w := range u.BlockedWebsites {
			if w != website {
				kept = append(kept, w)
			}
		}
		u.BlockedWebsites = kept
		s.state.SetUser(u)
	}
	return nil
}
