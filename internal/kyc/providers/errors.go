package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory defines the normalized failure taxonomy for provider errors.
//
// All provider clients classify transport-level failures into these categories
// so the service layer can make consistent retry decisions regardless of which
// provider raised them. Business outcomes carried in the body (an account that
// is blocked, a PAN that is invalid) are not categories; they go through the
// classifier decision table.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorContractMismatch indicates the provider response shape changed
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorNotFound indicates the requested record doesn't exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorRejected indicates a non-2xx business rejection; the body explains why
	ErrorRejected ErrorCategory = "rejected"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization.
//
// StatusCode and RawBody are kept verbatim so that the classifier can read the
// provider's free-text message.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	StatusCode int
	RawBody    []byte
	Message    string
	Underlying error
	Retryable  bool // Automatically set based on Category (timeout, outage, rate-limited → true)
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]%s: %s: %v", e.ProviderID, e.Category, status, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]%s: %s", e.ProviderID, e.Category, status, e.Message)
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error with automatic retry classification.
//
// The Retryable flag is set for transient failures (timeout, outage, rate-limited)
// and cleared for permanent ones.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// NewStatusError builds a ProviderError for a non-2xx response, keeping the raw body.
func NewStatusError(providerID string, status int, body []byte) *ProviderError {
	category := CategoryForStatus(status)
	pe := NewProviderError(category, providerID, ExtractMessage(body), nil)
	pe.StatusCode = status
	pe.RawBody = body
	if pe.Message == "" {
		pe.Message = fmt.Sprintf("unexpected status code: %d", status)
	}
	return pe
}

// CategoryForStatus maps an HTTP status to the normalized taxonomy.
func CategoryForStatus(status int) ErrorCategory {
	switch {
	case status == 401 || status == 403:
		return ErrorAuthentication
	case status == 404:
		return ErrorNotFound
	case status == 429:
		return ErrorRateLimited
	case status == 408 || status == 504:
		return ErrorTimeout
	case status >= 500:
		return ErrorProviderOutage
	case status >= 400:
		return ErrorRejected
	default:
		return ErrorInternal
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ErrorAuthentication
	}
	return ErrorInternal
}

// AuthError is returned when the provider rejects our API key/secret pair.
// It is fatal for the call and never retried automatically.
type AuthError struct {
	ProviderID string
	StatusCode int
	Message    string
	Underlying error
}

func (e *AuthError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s authentication failed: %s: %v", e.ProviderID, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s authentication failed (status %d): %s", e.ProviderID, e.StatusCode, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Underlying
}

// ExtractMessage pulls the human-readable message out of a provider JSON body.
// Providers are inconsistent about where they put it, so several shapes are tried.
func ExtractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Data    struct {
			Message string `json:"message"`
			Remarks string `json:"remarks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	switch {
	case envelope.Data.Message != "":
		return envelope.Data.Message
	case envelope.Message != "":
		return envelope.Message
	case envelope.Data.Remarks != "":
		return envelope.Data.Remarks
	}
	if s, ok := envelope.Error.(string); ok {
		return s
	}
	if m, ok := envelope.Error.(map[string]any); ok {
		if s, ok := m["message"].(string); ok {
			return s
		}
	}
	return ""
}
