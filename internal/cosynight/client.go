// Package cosynight is an HTTP client for the Beurer CosyNight cloud
// API: token-based authentication plus the device list, status and
// quickstart endpoints.
package cosynight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL = "https://cosynight.azurewebsites.net"
	DefaultTimeout = 10 * time.Second

	userAgent = "cosynight-bridge"

	// The token endpoint reports expiry as an RFC1123-style timestamp.
	tokenTimeLayout = "Mon, 02 Jan 2006 15:04:05 MST"
)

// ErrNotAuthenticated is returned when a call is made before Authenticate
// succeeded (and no stored token exists).
var ErrNotAuthenticated = errors.New("cosynight: not authenticated")

// AuthError wraps 401 responses: the token is invalid or the credentials
// changed. The client drops its token so the next Authenticate starts over.
type AuthError struct {
	Op string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cosynight: authentication failed during %s", e.Op)
}

// Config configures the client. Zero values fall back to defaults;
// TokenPath is required because the token outlives the vendor session.
type Config struct {
	BaseURL   string
	TokenPath string
	Timeout   time.Duration
}

// Client talks to the CosyNight cloud. Safe for concurrent use; token
// refresh is serialized behind a mutex.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *tokenStore

	mu    sync.Mutex
	token *token
}

// NewClient builds a client. No network traffic happens until
// Authenticate or the first API call.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      newTokenStore(cfg.TokenPath),
	}
}

// Authenticate obtains a token. A previously stored token is reused and
// refreshed if expired; otherwise a password grant is issued.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		if t, err := c.store.load(); err == nil && t != nil {
			c.token = t
		}
	}
	if c.token == nil {
		return c.passwordGrant(ctx, username, password)
	}
	return c.refreshIfExpired(ctx)
}

// ListDevices fetches all blankets registered to the account.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	var out deviceListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/Device/List", nil, &out); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return out.Devices, nil
}

// GetStatus fetches the current status of one blanket.
//
// The cloud rate-limits this endpoint; callers are expected to space
// their polls (see internal/polling).
func (c *Client) GetStatus(ctx context.Context, deviceID string) (Status, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return Status{}, err
	}
	var out Status
	req := map[string]string{"id": deviceID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/Device/GetStatus", req, &out); err != nil {
		return Status{}, fmt.Errorf("get status for device %s: %w", deviceID, err)
	}
	return out, nil
}

// Quickstart sends a zone/timer command to a blanket.
func (c *Client) Quickstart(ctx context.Context, q Quickstart) error {
	if err := c.ensureFresh(ctx); err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/Device/Quickstart", q, nil); err != nil {
		return fmt.Errorf("quickstart device %s: %w", q.ID, err)
	}
	return nil
}

// ensureFresh refreshes the token if it expired. Fails with
// ErrNotAuthenticated when no token is available at all.
func (c *Client) ensureFresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		if t, err := c.store.load(); err == nil && t != nil {
			c.token = t
		}
	}
	if c.token == nil {
		return ErrNotAuthenticated
	}
	return c.refreshIfExpired(ctx)
}

// refreshIfExpired must be called with c.mu held.
func (c *Client) refreshIfExpired(ctx context.Context) error {
	expires, err := time.Parse(tokenTimeLayout, c.token.Expires)
	if err != nil {
		// Unparseable expiry: treat the token as expired rather than
		// trusting it indefinitely.
		expires = time.Time{}
	}
	if time.Now().UTC().Before(expires.UTC()) {
		return nil
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.token.RefreshToken},
	}
	return c.tokenGrant(ctx, "refresh token", form)
}

// passwordGrant must be called with c.mu held.
func (c *Client) passwordGrant(ctx context.Context, username, password string) error {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	return c.tokenGrant(ctx, "password grant", form)
}

// tokenGrant posts to /token and stores the resulting token.
func (c *Client) tokenGrant(ctx context.Context, op string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		// The token endpoint answers 400 invalid_grant for bad
		// credentials or a revoked refresh token.
		c.token = nil
		return &AuthError{Op: op}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed with status %d", op, resp.StatusCode)
	}

	var t token
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	if t.AccessToken == "" {
		return fmt.Errorf("%s response missing access token", op)
	}
	c.token = &t
	if err := c.store.save(&t); err != nil {
		// A lost token file only costs a re-login next start.
		return nil
	}
	return nil
}

// doJSON executes an authenticated request and decodes the response into
// out (when non-nil). 401 clears the token and returns an AuthError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.mu.Lock()
	if c.token != nil {
		req.Header.Set("Authorization", c.token.TokenType+" "+c.token.AccessToken)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.token = nil
		c.mu.Unlock()
		return &AuthError{Op: method + " " + path}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
