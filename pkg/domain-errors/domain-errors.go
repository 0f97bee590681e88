package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"

	// Verification workflow codes.
	CodePrereqNotMet  Code = "prereq_not_met"  // Step ordering invariant violated
	CodeProviderBlock Code = "provider_block"  // Provider gave a terminal "no"
	CodeRetryLater    Code = "retry_later"     // Transient provider failure, caller may retry
	CodeProviderAuth  Code = "provider_auth"   // Provider rejected our credentials
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
//
// Reason is a stable machine-readable sub-code (e.g. "PAN_CATEGORY_MISMATCH")
// and Remark carries the provider's own wording when it should reach the user.
// Details holds small follow-up hints such as a suggested alternative method.
type Error struct {
	Code      Code
	Reason    string
	Message   string
	Remark    string
	Retryable bool
	Details   map[string]string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Reason != "" {
		return e.Reason
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewReason creates a domain error carrying a stable reason code.
// CodeRetryLater errors are always retryable.
func NewReason(code Code, reason, msg string) *Error {
	return &Error{Code: code, Reason: reason, Message: msg, Retryable: code == CodeRetryLater}
}

// WithRemark attaches the provider remark to the error.
func (e *Error) WithRemark(remark string) *Error {
	e.Remark = remark
	return e
}

// WithDetail attaches a key/value hint for the caller.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{
			Code:      existing.Code,
			Reason:    existing.Reason,
			Remark:    existing.Remark,
			Retryable: existing.Retryable,
			Details:   existing.Details,
			Message:   msg,
			Err:       err,
		}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// ReasonOf returns the reason code carried by a domain error, or "".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
