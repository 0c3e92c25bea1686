// Package service reads the coin-shop catalog.
package service

import (
	"context"
	"net/url"
	"strconv"

	"focusbuddy/internal/api"
	"focusbuddy/internal/shop/domain"
)

// Service wraps the shop catalog endpoints. Purchasing goes through the
// user service since it charges the user's balance.
type Service struct {
	client *api.Client
}

// NewService returns a shop service over the authenticated pipeline.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// ListFilter narrows a catalog listing. Zero-valued fields are omitted.
type ListFilter struct {
	Category   string
	IsFeatured *bool
}

// List returns catalog items matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.ShopItem, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.IsFeatured != nil {
		query.Set("is_featured", strconv.FormatBool(*filter.IsFeatured))
	}
	var items []domain.ShopItem
	if err := s.client.GetJSON(ctx, "/shop/items", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one catalog item by ID.
func (s *Service) Get(ctx context.Context, itemID string) (*domain.ShopItem, error) {
	var item domain.ShopItem
	if err := s.client.GetJSON(ctx, api.JoinPath("shop", "items", itemID), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create adds an item to the catalog (admin only server-side).
func (s *Service) Create(ctx context.Context, item domain.ShopItem) (*domain.ShopItem, error) {
	var created domain.ShopItem
	if err := s.client.PostJSON(ctx, "/shop/items", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SeedDefaults asks the server to install its default catalog.
func (s *Service) SeedDefaults(ctx context.Context) error {
	return s.client.PostJSON(ctx, "/shop/items/seed-default", nil, nil)
}
