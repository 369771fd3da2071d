// Package connection sends connection requests and answers received ones.
package connection

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/reconcile"
	"go.uber.org/zap"
)

// ErrSelfRequest is returned without a network call when a member tries to
// connect with themselves
var ErrSelfRequest = client.Validation("Cannot send connection request to yourself")

// Identity reports the logged-in member
type Identity interface {
	UserID() (int64, bool)
}

// Request is a normalized connection request
type Request struct {
	ID          int64
	SenderID    int64
	ReceiverID  int64
	Message     string
	Status      domain.RequestStatus
	CreatedAt   time.Time
	RespondedAt *time.Time
	Sender      domain.Card
	Receiver    domain.Card
}

// Result is the backend's confirmation of a mutation
type Result struct {
	Message string
}

// Client sends requests and keeps a cache of the received ones
type Client struct {
	api      *client.Client
	identity Identity
	logger   *zap.Logger
	received *reconcile.List[int64, Request]
}

// NewClient creates a connection client. logger may be nil.
func NewClient(api *client.Client, identity Identity, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:      api,
		identity: identity,
		logger:   logger,
		received: reconcile.NewList(func(r Request) int64 { return r.ID }),
	}
}

// SendRequest asks receiverID to connect
func (c *Client) SendRequest(ctx context.Context, receiverID int64, message string) (Result, error) {
	if _, ok := c.api.Token(); !ok {
		return Result{}, client.ErrLoginRequired
	}
	if c.identity != nil {
		if self, ok := c.identity.UserID(); ok && self == receiverID {
			return Result{}, ErrSelfRequest
		}
	}

	body := domain.ConnectionRequestBody{
		ReceiverID: receiverID,
		Message:    strings.TrimSpace(message),
	}
	var resp domain.APIResponse
	if err := c.api.Post(ctx, "/api/connections/request", body, true, &resp); err != nil {
		return Result{}, err
	}
	return Result{Message: resp.Message}, nil
}

// ListReceived loads the requests addressed to the member and replaces the cache
func (c *Client) ListReceived(ctx context.Context) ([]Request, error) {
	items, err := c.fetch(ctx, "/api/connections/received")
	if err != nil {
		return nil, err
	}
	c.received.Replace(items)
	return c.received.Items(), nil
}

// ListSent loads the requests the member sent. The result is not cached.
func (c *Client) ListSent(ctx context.Context) ([]Request, error) {
	return c.fetch(ctx, "/api/connections/sent")
}

// Requests returns a copy of the cached received requests
func (c *Client) Requests() []Request {
	return c.received.Items()
}

// Respond accepts or declines a received request. The cached request shows
// the new status right away; if the call fails the cache is reloaded from
// the server and the call's error is returned.
func (c *Client) Respond(ctx context.Context, requestID int64, decision domain.Decision) (Result, error) {
	if decision != domain.DecisionAccept && decision != domain.DecisionDecline {
		return Result{}, client.Validation(fmt.Sprintf("unknown decision %q", decision))
	}
	if _, ok := c.api.Token(); !ok {
		return Result{}, client.ErrLoginRequired
	}

	path := "/api/connections/" + strconv.FormatInt(requestID, 10) + "/" + strings.ToLower(string(decision))
	next := decision.Status()

	var resp domain.APIResponse
	err := reconcile.Apply(ctx, c.received, requestID,
		func(r *Request) {
			r.Status = next
			now := time.Now().UTC()
			r.RespondedAt = &now
		},
		func(ctx context.Context) error {
			return c.api.Do(ctx, client.Request{Method: http.MethodPut, Path: path, Auth: true}, &resp)
		},
		func(ctx context.Context) ([]Request, error) {
			return c.fetch(ctx, "/api/connections/received")
		},
	)
	if err != nil {
		c.logger.Info("respond failed, cache reloaded",
			zap.Int64("request_id", requestID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
		return Result{}, err
	}
	return Result{Message: resp.Message}, nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]Request, error) {
	var raw []domain.ConnectionRequest
	if err := c.api.Get(ctx, path, nil, true, &raw); err != nil {
		return nil, err
	}

	out := make([]Request, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalize(r))
	}
	return out, nil
}

func normalize(r domain.ConnectionRequest) Request {
	req := Request{
		ID:         r.ID,
		SenderID:   r.Sender.ID,
		ReceiverID: r.Receiver.ID,
		Message:    r.Message,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt.Time,
		Sender:     domain.ToCard(r.Sender),
		Receiver:   domain.ToCard(r.Receiver),
	}
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	if r.RespondedAt != nil && !r.RespondedAt.IsZero() {
		t := r.RespondedAt.Time
		req.RespondedAt = &t
	}
	return req
}
