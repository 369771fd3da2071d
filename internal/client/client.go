package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// TokenSource yields the current bearer token, if any
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the SkillSwap REST API
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-call timeout; 0 disables it
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API at baseURL. tokens may be nil when
// only public endpoints are used.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Token returns the stored bearer token
func (c *Client) Token() (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	token, ok := c.tokens.Token()
	return token, ok && token != ""
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body interface{}
	// Auth requires a session; without one the call fails with ErrLoginRequired.
	Auth bool

	contentType string
	raw         io.Reader
}

// Do performs the call and decodes a 2xx body into out when out is non-nil
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	var token string
	if req.Auth {
		t, ok := c.Token()
		if !ok {
			return ErrLoginRequired
		}
		token = t
	}

	body := req.raw
	contentType := req.contentType
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + req.Path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if err := classify(resp); err != nil {
		if e, ok := err.(*Error); ok && e.Kind != KindValidation {
			c.logger.Warn("request rejected",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("status", resp.StatusCode),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
		return err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}
	if msg, failed := envelopeFailure(data); failed {
		return &Error{Kind: KindValidation, Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Get is Do with GET
func (c *Client) Get(ctx context.Context, path string, query url.Values, auth bool, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Auth: auth}, out)
}

// Post is Do with POST and a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}, auth bool, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Auth: auth}, out)
}

// Put is Do with PUT and a JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}, auth bool, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Auth: auth}, out)
}

// File is one part of a multipart upload
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// PostFile uploads f as multipart/form-data. It always requires a session.
func (c *Client) PostFile(ctx context.Context, path string, f File, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
	header.Set("Content-Type", f.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}

	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Auth:        true,
		contentType: mw.FormDataContentType(),
		raw:         &buf,
	}, out)
}

// classify maps a non-2xx response to an *Error
func classify(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg, parsed := errorMessage(data)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: msg}
	case parsed:
		return &Error{Kind: KindValidation, Status: resp.StatusCode, Message: msg}
	default:
		return &Error{
			Kind:   KindNetwork,
			Status: resp.StatusCode,
			Err:    errors.New("unexpected status " + resp.Status),
		}
	}
}

type messageBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func errorMessage(data []byte) (string, bool) {
	var body messageBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", false
	}
	msg := strings.TrimSpace(body.Message)
	return msg, msg != ""
}

// envelopeFailure detects a 2xx {"success": false} body
func envelopeFailure(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var body messageBody
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return "", false
	}
	if body.Success == nil || *body.Success {
		return "", false
	}
	if body.Message == "" {
		return "request failed", true
	}
	return body.Message, true
}
