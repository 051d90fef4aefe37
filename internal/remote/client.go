// Package remote keeps learner profiles on an HTTP profile store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iamsmart/masterclass/internal/profile"
)

// Client talks to the profile store served by `masterclass serve`. It
// satisfies engine.ProfileStore; the user ID argument must match the
// token's subject, which the server enforces.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL using token for every request.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is returned for an unexpected HTTP status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Login fetches a development token for userID and returns a client that
// uses it. The server only grants it when dev login is enabled; otherwise
// an admin issues the token and it is passed to New.
func Login(ctx context.Context, baseURL, userID string, opts ...Option) (*Client, error) {
	c := New(baseURL, "", opts...)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/token", map[string]string{"user_id": userID}, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.token = out.AccessToken
	return c, nil
}

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.token }

// Load fetches the caller's profile. A 404 maps to profile.ErrNotFound.
func (c *Client) Load(ctx context.Context, userID string) (profile.LearnerProfile, error) {
	var p profile.LearnerProfile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &p)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return profile.LearnerProfile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.LearnerProfile{}, err
	}
	p.UserID = userID
	return p.Normalize(), nil
}

// Save replaces the caller's profile document.
func (c *Client) Save(ctx context.Context, userID string, p profile.LearnerProfile) error {
	p.UserID = userID
	return c.do(ctx, http.MethodPut, "/api/profile", p, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
