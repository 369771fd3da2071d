// Package directory reads the public profile directory and platform stats.
package directory

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/domain"
)

// Query selects one page of the directory. Page is zero-based.
type Query struct {
	Page         int
	Size         int
	Search       string
	Availability string
}

// Listing is one normalized page of profiles
type Listing struct {
	Items         []domain.Card
	TotalPages    int
	TotalElements int
	PageIndex     int
	Size          int
}

// Client reads the directory endpoints
type Client struct {
	api *client.Client
}

func NewClient(api *client.Client) *Client {
	return &Client{api: api}
}

// ListProfiles fetches one page. Blank search and availability are left out
// of the query entirely.
func (c *Client) ListProfiles(ctx context.Context, q Query) (*Listing, error) {
	if q.Size <= 0 {
		return nil, client.Validation(fmt.Sprintf("page size must be positive, got %d", q.Size))
	}
	if q.Page < 0 {
		return nil, client.Validation(fmt.Sprintf("page index must not be negative, got %d", q.Page))
	}
	availability, ok := domain.ParseAvailability(q.Availability)
	if !ok {
		return nil, client.Validation(fmt.Sprintf("unknown availability %q", q.Availability))
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(q.Size))
	if search := strings.TrimSpace(q.Search); search != "" {
		params.Set("search", search)
	}
	if availability != "" {
		params.Set("availability", string(availability))
	}

	var page domain.ProfilePage
	if err := c.api.Get(ctx, "/api/profiles", params, false, &page); err != nil {
		return nil, err
	}

	items := make([]domain.Card, 0, len(page.Profiles))
	for _, p := range page.Profiles {
		items = append(items, domain.ToCard(p))
	}
	return &Listing{
		Items:         items,
		TotalPages:    page.TotalPages,
		TotalElements: page.TotalElements,
		PageIndex:     page.CurrentPage,
		Size:          q.Size,
	}, nil
}

// GetProfile fetches one public profile
func (c *Client) GetProfile(ctx context.Context, id int64) (*domain.Card, error) {
	var p domain.Profile
	if err := c.api.Get(ctx, "/api/profiles/"+strconv.FormatInt(id, 10), nil, false, &p); err != nil {
		return nil, err
	}
	card := domain.ToCard(p)
	return &card, nil
}

// GetStats fetches the platform counters
func (c *Client) GetStats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	err := c.api.Get(ctx, "/api/stats", nil, false, &s)
	return s, err
}

// Rate submits a 1-5 rating for a profile. It requires a session.
func (c *Client) Rate(ctx context.Context, profileID int64, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return client.Validation("Rating must be between 1 and 5")
	}
	if _, ok := c.api.Token(); !ok {
		return client.ErrLoginRequired
	}
	body := domain.RateRequest{Rating: rating, Review: strings.TrimSpace(review)}
	return c.api.Post(ctx, "/api/profiles/"+strconv.FormatInt(profileID, 10)+"/rate", body, true, nil)
}

// UIPageToIndex converts a one-based page number as shown to users into the
// zero-based index the API expects
func UIPageToIndex(uiPage int) int {
	if uiPage < 1 {
		return 0
	}
	return uiPage - 1
}
