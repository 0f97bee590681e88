package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dsakyc/internal/kyc/providers"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type SessionSuite struct {
	suite.Suite
	server    *httptest.Server
	authCalls atomic.Int32
	status    int
	body      string
	delay     time.Duration
	clock     *fakeClock
	lastKey   atomic.Value
	lastSecr  atomic.Value
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.authCalls.Store(0)
	s.status = http.StatusOK
	s.body = `{"access_token":"tok-1"}`
	s.delay = 0
	s.clock = &fakeClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/authenticate" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.authCalls.Add(1)
		s.lastKey.Store(r.Header.Get("x-api-key"))
		s.lastSecr.Store(r.Header.Get("x-api-secret"))
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(s.body))
	}))
}

func (s *SessionSuite) TearDownTest() {
	s.server.Close()
}

func (s *SessionSuite) newSession() *Session {
	return New(Config{
		ProviderID: "kyc-provider",
		BaseURL:    s.server.URL,
		APIKey:     "key_live",
		APISecret:  "secret_live",
		HTTPClient: s.server.Client(),
	}, WithClock(s.clock.Now))
}

func (s *SessionSuite) TestAuthenticatesOnceAndCaches() {
	sess := s.newSession()

	token, err := sess.EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal("tok-1", token)

	token, err = sess.EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal("tok-1", token)
	s.Equal(int32(1), s.authCalls.Load())
	s.Equal("key_live", s.lastKey.Load())
	s.Equal("secret_live", s.lastSecr.Load())
}

func (s *SessionSuite) TestFixedValidityWindow() {
	sess := s.newSession()
	_, err := sess.EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(DefaultValidity), sess.ExpiresAt())
}

func (s *SessionSuite) TestRefreshesInsideBuffer() {
	sess := s.newSession()
	_, err := sess.EnsureValid(context.Background())
	s.Require().NoError(err)

	s.Run("outside buffer keeps token", func() {
		s.clock.Advance(DefaultValidity - 10*time.Minute)
		_, err := sess.EnsureValid(context.Background())
		s.Require().NoError(err)
		s.Equal(int32(1), s.authCalls.Load())
	})

	s.Run("two minutes before expiry re-authenticates", func() {
		s.clock.Advance(8 * time.Minute)
		s.body = `{"access_token":"tok-2"}`
		token, err := sess.EnsureValid(context.Background())
		s.Require().NoError(err)
		s.Equal("tok-2", token)
		s.Equal(int32(2), s.authCalls.Load())
	})
}

func (s *SessionSuite) TestForceInvalidate() {
	sess := s.newSession()
	_, err := sess.EnsureValid(context.Background())
	s.Require().NoError(err)

	sess.ForceInvalidate()
	s.True(sess.ExpiresAt().IsZero())

	_, err = sess.EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal(int32(2), s.authCalls.Load())
}

func (s *SessionSuite) TestConcurrentCallersShareOneAuthentication() {
	s.delay = 50 * time.Millisecond
	sess := s.newSession()

	var wg sync.WaitGroup
	tokens := make([]string, 16)
	errs := make([]error, 16)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = sess.EnsureValid(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range tokens {
		s.Require().NoError(errs[i])
		s.Equal("tok-1", tokens[i])
	}
	s.Equal(int32(1), s.authCalls.Load())
}

func (s *SessionSuite) TestLeaderTimeoutDoesNotFailWaitingCallers() {
	s.delay = 200 * time.Millisecond
	sess := s.newSession()

	leaderCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var (
		wg        sync.WaitGroup
		leaderErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, leaderErr = sess.EnsureValid(leaderCtx)
	}()
	// Let the leader start the flight before the follower joins it.
	time.Sleep(10 * time.Millisecond)

	token, err := sess.EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal("tok-1", token)

	wg.Wait()
	s.Require().Error(leaderErr)
	s.Equal(providers.ErrorTimeout, providers.GetCategory(leaderErr))
	s.Equal(int32(1), s.authCalls.Load())

	// The flight outlived the leader and its token is cached.
	token, err = sess.EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal("tok-1", token)
	s.Equal(int32(1), s.authCalls.Load())
}

func (s *SessionSuite) TestAuthTimeoutBoundsTheFlight() {
	s.delay = 200 * time.Millisecond
	sess := New(Config{
		ProviderID:  "kyc-provider",
		BaseURL:     s.server.URL,
		AuthTimeout: 30 * time.Millisecond,
		HTTPClient:  s.server.Client(),
	}, WithClock(s.clock.Now))

	_, err := sess.EnsureValid(context.Background())
	s.Require().Error(err)
	s.Equal(providers.ErrorTimeout, providers.GetCategory(err))
}

func (s *SessionSuite) TestNestedTokenAccepted() {
	s.body = `{"code":200,"data":{"access_token":"nested"}}`
	token, err := s.newSession().EnsureValid(context.Background())
	s.Require().NoError(err)
	s.Equal("nested", token)
}

func (s *SessionSuite) TestRejectedCredentials() {
	s.status = http.StatusUnauthorized
	s.body = `{"message":"Invalid API key"}`

	_, err := s.newSession().EnsureValid(context.Background())
	s.Require().Error(err)

	var authErr *providers.AuthError
	s.Require().True(errors.As(err, &authErr))
	s.Equal(http.StatusUnauthorized, authErr.StatusCode)
	s.Equal("Invalid API key", authErr.Message)
	s.False(providers.IsRetryable(err))
	s.Equal(providers.ErrorAuthentication, providers.GetCategory(err))
}

func (s *SessionSuite) TestMissingTokenIsAuthError() {
	s.body = `{"message":"ok"}`
	_, err := s.newSession().EnsureValid(context.Background())
	var authErr *providers.AuthError
	s.True(errors.As(err, &authErr))
}

func TestProviderOutageDuringAuthIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sess := New(Config{ProviderID: "kyc", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := sess.EnsureValid(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsRetryable(err))
	assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(err))
}
