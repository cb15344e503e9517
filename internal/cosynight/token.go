package cosynight

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// token is the payload of the vendor's /token endpoint. The ".expires"
// and ".issued" keys are what the server actually emits.
type token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Expires      string `json:".expires"`
	Issued       string `json:".issued"`
	UserEmail    string `json:"user_email"`
	UserID       string `json:"user_id"`
}

// tokenStore persists the token across restarts so the refresh grant can
// be used instead of re-sending the password.
type tokenStore struct {
	path string
}

func newTokenStore(path string) *tokenStore {
	return &tokenStore{path: path}
}

// load reads the stored token. Returns (nil, nil) when no file exists.
func (s *tokenStore) load() (*token, error) {
	if s.path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token file %q: %w", s.path, err)
	}
	var t token
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse token file %q: %w", s.path, err)
	}
	if t.AccessToken == "" {
		return nil, nil
	}
	return &t, nil
}

// save writes the token with owner-only permissions.
func (s *tokenStore) save(t *token) error {
	if s.path == "" {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write token file %q: %w", s.path, err)
	}
	return nil
}
