package editor

import (
	"context"

	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/domain"
)

// ProfileAPI is the part of the backend the editor talks to
type ProfileAPI interface {
	GetMe(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) error
	UpdateSkills(ctx context.Context, req domain.UpdateSkillsRequest) error
	UploadPhoto(ctx context.Context, f client.File) error
}

// Client implements ProfileAPI over HTTP
type Client struct {
	api *client.Client
}

func NewClient(api *client.Client) *Client {
	return &Client{api: api}
}

func (c *Client) GetMe(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.api.Get(ctx, "/api/profile/me", nil, true, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) error {
	var resp domain.APIResponse
	return c.api.Put(ctx, "/api/profile/me", req, true, &resp)
}

func (c *Client) UpdateSkills(ctx context.Context, req domain.UpdateSkillsRequest) error {
	var resp domain.APIResponse
	return c.api.Post(ctx, "/api/profile/me/skills", req, true, &resp)
}

func (c *Client) UploadPhoto(ctx context.Context, f client.File) error {
	var resp domain.APIResponse
	return c.api.PostFile(ctx, "/api/profile/me/photo", f, &resp)
}
