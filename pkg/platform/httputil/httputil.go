package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "dsakyc/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	Retryable        bool              `json:"retryable"`
	Remark           string            `json:"remark,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:            DomainCodeToHTTPCode(domainErr.Code),
			ErrorDescription: domainErr.Message,
			Reason:           domainErr.Reason,
			Retryable:        domainErr.Retryable,
			Remark:           domainErr.Remark,
			Details:          domainErr.Details,
		})
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// StatusFor returns the HTTP status WriteError would use for err.
func StatusFor(err error) int {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return DomainCodeToHTTPStatus(domainErr.Code)
	}
	return http.StatusInternalServerError
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodePrereqNotMet:
		return http.StatusPreconditionFailed
	case dErrors.CodeProviderBlock:
		return http.StatusUnprocessableEntity
	case dErrors.CodeRetryLater:
		return http.StatusServiceUnavailable
	case dErrors.CodeProviderAuth:
		return http.StatusBadGateway
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the JSON error string.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodePrereqNotMet:
		return "prerequisite_not_met"
	case dErrors.CodeProviderBlock:
		return "verification_declined"
	case dErrors.CodeRetryLater:
		return "retry_later"
	case dErrors.CodeProviderAuth:
		return "provider_unavailable"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
