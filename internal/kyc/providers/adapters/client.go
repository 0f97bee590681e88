package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"dsakyc/internal/kyc/providers"
	"dsakyc/pkg/platform/circuit"
)

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 60 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource hands out provider access tokens. Implemented by session.Session.
type TokenSource interface {
	EnsureValid(ctx context.Context) (string, error)
	ForceInvalidate()
}

// CallObserver receives the outcome of every provider round-trip.
type CallObserver interface {
	ObserveProviderCall(providerID, outcome string, duration time.Duration)
}

// Response is a successful (2xx) provider response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(providerID string, v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		pe := providers.NewProviderError(providers.ErrorContractMismatch, providerID, "failed to parse response", err)
		pe.StatusCode = r.StatusCode
		pe.RawBody = r.Body
		return pe
	}
	return nil
}

// Rejected builds a business rejection for a 2xx response whose body says no.
func (r *Response) Rejected(providerID, message string) *providers.ProviderError {
	if message == "" {
		message = providers.ExtractMessage(r.Body)
	}
	pe := providers.NewProviderError(providers.ErrorRejected, providerID, message, nil)
	pe.StatusCode = r.StatusCode
	pe.RawBody = r.Body
	return pe
}

// ClientConfig configures a provider client.
type ClientConfig struct {
	ID         string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Session    TokenSource
	Breaker    *circuit.Breaker
	Observer   CallObserver
	Logger     *slog.Logger
}

// Client issues authenticated calls against one provider. A 403 that reports an
// expired or under-privileged token triggers exactly one re-authentication and
// retry.
type Client struct {
	id       string
	baseURL  string
	apiKey   string
	client   HTTPDoer
	session  TokenSource
	timeout  time.Duration
	breaker  *circuit.Breaker
	observer CallObserver
	logger   *slog.Logger
}

// NewClient creates a provider client. Session is required.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		id:       cfg.ID,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		client:   selectHTTPClient(cfg),
		session:  cfg.Session,
		timeout:  cfg.Timeout,
		breaker:  cfg.Breaker,
		observer: cfg.Observer,
		logger:   logger,
	}
}

func selectHTTPClient(cfg ClientConfig) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{Timeout: cfg.Timeout}
}

// ID returns the provider identifier
func (c *Client) ID() string {
	return c.id
}

// Execute performs one logical provider call.
func (c *Client) Execute(ctx context.Context, method, path string, body any) (*Response, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		c.observe("circuit_open", 0)
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, c.id, "circuit open", nil)
	}

	start := time.Now()
	resp, err := c.do(ctx, method, path, body)
	if isTokenRejection(err) {
		c.logger.WarnContext(ctx, "provider rejected token, re-authenticating",
			"provider_id", c.id,
			"path", path,
		)
		c.session.ForceInvalidate()
		resp, err = c.do(ctx, method, path, body)
	}

	c.record(err)
	c.observe(outcome(err), time.Since(start))
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	token, err := c.session.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, providers.NewProviderError(providers.ErrorBadData, c.id, "failed to marshal request", err)
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "failed to create request", err)
	}

	// The provider expects the bare token, not a Bearer credential.
	req.Header.Set("Authorization", token)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, providers.NewProviderError(providers.ErrorTimeout, c.id, "request timeout", err)
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, c.id, "failed to execute request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, providers.NewProviderError(providers.ErrorTimeout, c.id, "response timeout", err)
		}
		return nil, providers.NewProviderError(providers.ErrorBadData, c.id, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providers.NewStatusError(c.id, resp.StatusCode, respBody)
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// tokenRejectionPatterns name the token itself so that a business message
// such as "OTP Expired" on a 403 never triggers re-authentication.
var tokenRejectionPatterns = []string{
	"token expired",
	"token has expired",
	"token is expired",
	"expired token",
	"invalid token",
	"insufficient privilege",
}

func isTokenRejection(err error) bool {
	var pe *providers.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusForbidden {
		return false
	}
	text := strings.ToLower(pe.Message + " " + string(pe.RawBody))
	for _, p := range tokenRejectionPatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// record feeds the breaker. Only unavailability counts as failure; a provider
// that answers with a business rejection is healthy.
func (c *Client) record(err error) {
	if c.breaker == nil {
		return
	}
	switch providers.GetCategory(err) {
	case providers.ErrorTimeout, providers.ErrorProviderOutage:
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("provider circuit opened", "provider_id", c.id)
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("provider circuit closed", "provider_id", c.id)
	}
}

func (c *Client) observe(result string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveProviderCall(c.id, result, d)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(providers.GetCategory(err))
}
