// Package session maintains the authenticated session against a provider that
// issues short-lived access tokens.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"dsakyc/internal/kyc/providers"
)

const (
	DefaultValidity      = 24 * time.Hour
	DefaultRefreshBuffer = 5 * time.Minute
	DefaultAuthTimeout   = 30 * time.Second
)

// Doer is the minimal HTTP client surface needed to authenticate.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config identifies the provider and the credentials exchanged for a token.
type Config struct {
	ProviderID    string
	BaseURL       string
	APIKey        string
	APISecret     string
	Validity      time.Duration // fixed lifetime assigned to every issued token
	RefreshBuffer time.Duration // refresh this long before expiry
	AuthTimeout   time.Duration // bound on one authentication round-trip
	HTTPClient    Doer
}

// Session owns one provider token and refreshes it on demand.
// It is safe for concurrent use; racing refreshes share a single
// authentication round-trip.
type Session struct {
	cfg    Config
	client Doer
	now    func() time.Time
	logger *slog.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func New(cfg Config, opts ...Option) *Session {
	if cfg.Validity <= 0 {
		cfg.Validity = DefaultValidity
	}
	if cfg.RefreshBuffer < 0 {
		cfg.RefreshBuffer = 0
	} else if cfg.RefreshBuffer == 0 {
		cfg.RefreshBuffer = DefaultRefreshBuffer
	}
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = DefaultAuthTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.AuthTimeout}
	}
	s := &Session{
		cfg:    cfg,
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureValid returns a token that is not within the refresh buffer of its
// expiry, authenticating first when necessary.
//
// The shared authentication runs detached from any one caller's
// cancellation, bounded by AuthTimeout. A caller whose own context ends
// stops waiting without failing the others.
func (s *Session) EnsureValid(ctx context.Context) (string, error) {
	if token, ok := s.current(); ok {
		return token, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("authenticate", func() (any, error) {
		// Another flight may have refreshed while we were waiting on the group.
		if token, ok := s.current(); ok {
			return token, nil
		}
		return s.authenticate(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", providers.NewProviderError(providers.ErrorTimeout, s.cfg.ProviderID, "authentication timeout", ctx.Err())
		}
		return "", ctx.Err()
	}
}

// ForceInvalidate drops the current token so the next EnsureValid re-authenticates.
func (s *Session) ForceInvalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// ExpiresAt reports when the current token lapses. Zero when no token is held.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *Session) current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if !s.now().Before(s.expiresAt.Add(-s.cfg.RefreshBuffer)) {
		return "", false
	}
	return s.token, true
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	Data        struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

func (s *Session) authenticate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AuthTimeout)
	defer cancel()

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/authenticate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorInternal, s.cfg.ProviderID, "failed to create auth request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.cfg.APIKey)
	req.Header.Set("x-api-secret", s.cfg.APISecret)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", providers.NewProviderError(providers.ErrorTimeout, s.cfg.ProviderID, "authentication timeout", err)
		}
		return "", providers.NewProviderError(providers.ErrorProviderOutage, s.cfg.ProviderID, "authentication request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorBadData, s.cfg.ProviderID, "failed to read auth response", err)
	}

	if resp.StatusCode >= 500 {
		return "", providers.NewStatusError(s.cfg.ProviderID, resp.StatusCode, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &providers.AuthError{
			ProviderID: s.cfg.ProviderID,
			StatusCode: resp.StatusCode,
			Message:    providers.ExtractMessage(body),
		}
	}

	var parsed authResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &providers.AuthError{ProviderID: s.cfg.ProviderID, StatusCode: resp.StatusCode, Message: "malformed auth response", Underlying: err}
	}
	token := parsed.AccessToken
	if token == "" {
		token = parsed.Data.AccessToken
	}
	if token == "" {
		return "", &providers.AuthError{ProviderID: s.cfg.ProviderID, StatusCode: resp.StatusCode, Message: "auth response carried no access token"}
	}

	expiresAt := s.now().Add(s.cfg.Validity)
	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.InfoContext(ctx, "provider session authenticated",
			"provider_id", s.cfg.ProviderID,
			"expires_at", expiresAt.Format(time.RFC3339),
		)
	}
	return token, nil
}
