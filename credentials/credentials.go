// Package credentials supplies OAuth2 tokens to the Google Drive and Sheets
// collaborators. Tokens are cached in a JSON file, refreshed shortly before
// they expire, and re-authorized when a refresh is refused.
package credentials

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultEarlyExpiry is how long before expiry a cached token is refreshed.
const DefaultEarlyExpiry = 2 * time.Minute

// Scopes are the permissions the capture pipeline needs.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

// ErrNoToken is returned when no cached token exists and no Authorizer is
// configured to obtain one.
var ErrNoToken = errors.New("no usable token and no authorizer configured")

// Provider supplies a token source that always yields a valid credential.
type Provider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// Authorizer obtains a brand-new token, typically through user consent.
type Authorizer interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// PromptAuthorizer prints the consent URL to Out and reads the
// authorization code from In.
type PromptAuthorizer struct {
	In  io.Reader
	Out io.Writer
}

// Authorize implements Authorizer.
func (p PromptAuthorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("newscapture", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(p.Out, "Open the following URL, approve access, and paste the code:\n%s\n> ", authURL)

	scanner := bufio.NewScanner(p.In)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read authorization code: %w", err)
		}
		return nil, errors.New("no authorization code entered")
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return nil, errors.New("no authorization code entered")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return tok, nil
}

// FileProvider is a Provider backed by a token cache file.
type FileProvider struct {
	Config      *oauth2.Config
	TokenFile   string
	Authorizer  Authorizer
	EarlyExpiry time.Duration
	Logger      *slog.Logger
}

// NewFileProvider reads an OAuth client secrets file (as downloaded from
// the Google Cloud console) and caches tokens in tokenFile.
func NewFileProvider(credentialsFile, tokenFile string, authorizer Authorizer, logger *slog.Logger) (*FileProvider, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProvider{
		Config:      cfg,
		TokenFile:   tokenFile,
		Authorizer:  authorizer,
		EarlyExpiry: DefaultEarlyExpiry,
		Logger:      logger,
	}, nil
}

// TokenSource returns a source that refreshes before expiry and writes
// every new token back to the cache file. When the cached token is missing
// or can no longer be refreshed, the Authorizer is asked for a new one.
func (p *FileProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	logger := p.logger()

	tok, err := p.loadToken()
	if err != nil {
		logger.Info("no cached token, authorizing", "file", p.TokenFile, "reason", err)
		if tok, err = p.authorize(ctx); err != nil {
			return nil, err
		}
	}

	src := p.reuse(ctx, tok)
	current, err := src.Token()
	if err != nil {
		logger.Warn("token refresh failed, re-authorizing", "error", err)
		if tok, err = p.authorize(ctx); err != nil {
			return nil, err
		}
		src = p.reuse(ctx, tok)
		if current, err = src.Token(); err != nil {
			return nil, fmt.Errorf("failed to use new token: %w", err)
		}
	}

	saving := &savingSource{src: src, save: p.saveToken, logger: logger}
	saving.remember(current)
	return saving, nil
}

// ClientOptions returns the Google API client options carrying this
// provider's token source.
func (p *FileProvider) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}

// Reauthorize asks the Authorizer for a new token and caches it, replacing
// whatever the token file held.
func (p *FileProvider) Reauthorize(ctx context.Context) error {
	_, err := p.authorize(ctx)
	return err
}

func (p *FileProvider) reuse(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	early := p.EarlyExpiry
	if early <= 0 {
		early = DefaultEarlyExpiry
	}
	return oauth2.ReuseTokenSourceWithExpiry(tok, p.Config.TokenSource(ctx, tok), early)
}

func (p *FileProvider) authorize(ctx context.Context) (*oauth2.Token, error) {
	if p.Authorizer == nil {
		return nil, ErrNoToken
	}
	tok, err := p.Authorizer.Authorize(ctx, p.Config)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if err := p.saveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func (p *FileProvider) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.TokenFile)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("token file holds no token")
	}
	return &tok, nil
}

func (p *FileProvider) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(p.TokenFile), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(p.TokenFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (p *FileProvider) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// savingSource persists a token whenever the wrapped source hands out a
// different access token than last time.
type savingSource struct {
	src    oauth2.TokenSource
	save   func(*oauth2.Token) error
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *savingSource) remember(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.save(tok); err != nil {
			s.logger.Warn("failed to cache token", "error", err)
		}
	}
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.remember(tok)
	return tok, nil
}
