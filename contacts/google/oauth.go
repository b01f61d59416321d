// ABOUTME: OAuth configuration and token storage for the Google contact source
// ABOUTME: Tokens live at an XDG data path with owner-only permissions
package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const contactsScope = "https://www.googleapis.com/auth/contacts.readonly"

var ErrNoToken = errors.New("no stored Google token")

type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewOAuthConfig creates a read-only contacts OAuth2 config.
func NewOAuthConfig(creds Credentials) *oauth2.Config {
	redirect := creds.RedirectURL
	if redirect == "" {
		redirect = "http://localhost:8080/oauth/callback"
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{contactsScope},
		Endpoint:     googleoauth.Endpoint,
	}
}

// DefaultTokenPath returns the XDG-compliant token location.
func DefaultTokenPath() string {
	return filepath.Join(xdg.DataHome, "contactshq", "google-credentials.json")
}

type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &TokenStore{path: path}
}

func (s *TokenStore) Path() string {
	return s.path
}

func (s *TokenStore) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

func (s *TokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}
