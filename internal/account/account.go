// Package account runs the login, registration, email verification and
// logout flows against the backend and keeps the session store in sync.
package account

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/session"
	"github.com/skillswap/client/pkg/validator"
	"go.uber.org/zap"
)

var ErrCredentialsRequired = client.Validation("Email and password are required")

type Client struct {
	api      *client.Client
	sessions *session.Store
	logger   *zap.Logger
}

// NewClient creates an account client. logger may be nil.
func NewClient(api *client.Client, sessions *session.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, sessions: sessions, logger: logger}
}

// Login authenticates and stores the session. A rejected login leaves any
// existing session untouched.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = validator.SanitizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	var resp domain.LoginResponse
	req := domain.LoginRequest{Email: email, Password: password}
	if err := c.api.Post(ctx, "/api/auth/login", req, false, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &client.Error{Kind: client.KindNetwork, Err: errors.New("login response without token")}
	}

	if err := c.sessions.Set(resp.Token, resp.User); err != nil {
		return nil, err
	}
	c.logger.Info("logged in", zap.Int64("user_id", resp.User.ID))
	return resp.User, nil
}

// Register creates an account. The backend replies with a message telling
// the member to verify their email.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	if errs := validator.ValidateRegistration(req.FirstName, req.LastName, req.Email, req.Password, req.ConfirmPassword); errs.HasErrors() {
		return "", errs
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = validator.SanitizeEmail(req.Email)

	var resp domain.APIResponse
	if err := c.api.Post(ctx, "/api/auth/register", req, false, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyEmail redeems the token from the verification email
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", client.Validation("Verification token is required")
	}

	var resp domain.APIResponse
	if err := c.api.Get(ctx, "/api/auth/verify-email/"+url.PathEscape(token), nil, false, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout removes the stored session
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear()
}

// Current returns the stored identity
func (c *Client) Current() (*domain.User, bool) {
	sess, ok := c.sessions.Get()
	if !ok || sess.User == nil {
		return nil, false
	}
	return sess.User, true
}
