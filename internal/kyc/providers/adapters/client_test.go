package adapters

//go:generate mockgen -source=client.go -destination=mocks/http_doer_mock.go -package=mocks HTTPDoer,TokenSource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dsakyc/internal/kyc/providers"
	"dsakyc/internal/kyc/providers/adapters/mocks"
	"dsakyc/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	doer    *mocks.MockHTTPDoer
	session *mocks.MockTokenSource
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.doer = mocks.NewMockHTTPDoer(s.ctrl)
	s.session = mocks.NewMockTokenSource(s.ctrl)
	s.client = NewClient(ClientConfig{
		ID:         "kyc-provider",
		BaseURL:    "https://api.example.test/",
		APIKey:     "key_live",
		HTTPClient: s.doer,
		Session:    s.session,
	})
}

func (s *ClientSuite) TearDownTest() {
	s.ctrl.Finish()
}

func reply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func (s *ClientSuite) TestSendsRawTokenAndAPIKey() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok-abc", nil)
	s.doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		s.Equal("tok-abc", req.Header.Get("Authorization"))
		s.Equal("key_live", req.Header.Get("x-api-key"))
		s.Equal("application/json", req.Header.Get("Content-Type"))
		s.Equal("https://api.example.test/kyc/pan/verify", req.URL.String())
		s.Equal(http.MethodPost, req.Method)
		return reply(http.StatusOK, `{"data":{"status":"valid"}}`), nil
	})

	resp, err := s.client.Execute(context.Background(), http.MethodPost, "/kyc/pan/verify", map[string]string{"pan": "ABCPK1234F"})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(resp.Body), "valid")
}

func (s *ClientSuite) TestGetCarriesNoContentType() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		s.Empty(req.Header.Get("Content-Type"))
		s.Nil(req.Body)
		return reply(http.StatusOK, `{}`), nil
	})

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.Require().NoError(err)
}

func (s *ClientSuite) TestRetriesOnceAfterExpiredToken() {
	gomock.InOrder(
		s.session.EXPECT().EnsureValid(gomock.Any()).Return("stale", nil),
		s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusForbidden, `{"message":"Access token has Expired"}`), nil),
		s.session.EXPECT().ForceInvalidate(),
		s.session.EXPECT().EnsureValid(gomock.Any()).Return("fresh", nil),
		s.doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
			s.Equal("fresh", req.Header.Get("Authorization"))
			return reply(http.StatusOK, `{"ok":true}`), nil
		}),
	)

	resp, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.Require().NoError(err)
	s.Equal(`{"ok":true}`, string(resp.Body))
}

func (s *ClientSuite) TestInsufficientPrivilegeRetriesExactlyOnce() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil).Times(2)
	s.session.EXPECT().ForceInvalidate().Times(1)
	s.doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(*http.Request) (*http.Response, error) {
		return reply(http.StatusForbidden, `{"message":"Insufficient privilege"}`), nil
	}).Times(2)

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.Require().Error(err)

	var pe *providers.ProviderError
	s.Require().True(errors.As(err, &pe))
	s.Equal(http.StatusForbidden, pe.StatusCode)
	s.Equal(providers.ErrorAuthentication, pe.Category)
}

func (s *ClientSuite) TestOtherForbiddenIsNotRetried() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusForbidden, `{"message":"IP not whitelisted"}`), nil)

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.Require().Error(err)
	s.Equal(providers.ErrorAuthentication, providers.GetCategory(err))
}

func (s *ClientSuite) TestExpiredOTPOnForbiddenIsNotRetried() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusForbidden, `{"message":"OTP Expired"}`), nil)

	_, err := s.client.Execute(context.Background(), http.MethodPost, "/okyc/otp/verify", nil)
	s.Require().Error(err)

	var pe *providers.ProviderError
	s.Require().True(errors.As(err, &pe))
	s.Equal("OTP Expired", pe.Message)
}

func (s *ClientSuite) TestStatusErrorsKeepBody() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusUnprocessableEntity, `{"message":"Invalid account number or ifsc provided"}`), nil)

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/x/accounts/y/verify", nil)
	var pe *providers.ProviderError
	s.Require().True(errors.As(err, &pe))
	s.Equal(http.StatusUnprocessableEntity, pe.StatusCode)
	s.Equal("Invalid account number or ifsc provided", pe.Message)
	s.Equal(providers.ErrorRejected, pe.Category)
	s.False(pe.Retryable)
}

func (s *ClientSuite) TestServerErrorIsRetryable() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusServiceUnavailable, `upstream down`), nil)

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.True(providers.IsRetryable(err))
	s.Equal(providers.ErrorProviderOutage, providers.GetCategory(err))
}

func (s *ClientSuite) TestTransportFailureIsOutage() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.True(providers.IsRetryable(err))
	s.Equal(providers.ErrorProviderOutage, providers.GetCategory(err))
}

func (s *ClientSuite) TestSessionErrorSkipsCall() {
	s.session.EXPECT().EnsureValid(gomock.Any()).Return("", &providers.AuthError{ProviderID: "kyc-provider", StatusCode: 401})

	_, err := s.client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	var authErr *providers.AuthError
	s.True(errors.As(err, &authErr))
}

func (s *ClientSuite) TestOpenCircuitShortCircuits() {
	breaker := circuit.New("kyc-provider", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	client := NewClient(ClientConfig{ID: "kyc-provider", HTTPClient: s.doer, Session: s.session, Breaker: breaker})

	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil).Times(2)
	s.doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(*http.Request) (*http.Response, error) {
		return reply(http.StatusBadGateway, ``), nil
	}).Times(2)

	for i := 0; i < 2; i++ {
		_, err := client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
		s.Require().Error(err)
	}
	s.True(breaker.IsOpen())

	_, err := client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	s.Equal(providers.ErrorProviderOutage, providers.GetCategory(err))
}

func (s *ClientSuite) TestBusinessRejectionDoesNotTripBreaker() {
	breaker := circuit.New("kyc-provider", circuit.WithFailureThreshold(1))
	client := NewClient(ClientConfig{ID: "kyc-provider", HTTPClient: s.doer, Session: s.session, Breaker: breaker})

	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusBadRequest, `{"message":"IFSC is invalid"}`), nil)

	_, err := client.Execute(context.Background(), http.MethodGet, "/bank/BAD", nil)
	s.Require().Error(err)
	s.False(breaker.IsOpen())
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveProviderCall(_, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (s *ClientSuite) TestObserverSeesOutcome() {
	obs := &recordingObserver{}
	client := NewClient(ClientConfig{ID: "kyc-provider", HTTPClient: s.doer, Session: s.session, Observer: obs})

	s.session.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil).Times(2)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusOK, `{}`), nil)
	s.doer.EXPECT().Do(gomock.Any()).Return(reply(http.StatusTooManyRequests, `{}`), nil)

	_, _ = client.Execute(context.Background(), http.MethodGet, "/a", nil)
	_, _ = client.Execute(context.Background(), http.MethodGet, "/b", nil)
	s.Equal([]string{"ok", "rate_limited"}, obs.outcomes)
}

func TestTimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	sess := mocks.NewMockTokenSource(ctrl)
	sess.EXPECT().EnsureValid(gomock.Any()).Return("tok", nil)

	client := NewClient(ClientConfig{
		ID:         "bank-provider",
		BaseURL:    srv.URL,
		Timeout:    20 * time.Millisecond,
		HTTPClient: &http.Client{},
		Session:    sess,
	})

	_, err := client.Execute(context.Background(), http.MethodGet, "/bank/HDFC0001234", nil)
	if !providers.IsRetryable(err) || providers.GetCategory(err) != providers.ErrorTimeout {
		t.Fatalf("expected retryable timeout, got %v", err)
	}
}
