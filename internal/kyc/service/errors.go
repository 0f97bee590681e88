package service

import (
	"context"
	"errors"

	"dsakyc/internal/kyc/classifier"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/providers"
	dErrors "dsakyc/pkg/domain-errors"
)

const (
	reasonProviderAuth = "PROVIDER_AUTH"
	reasonPrereqNotMet = "PREREQ_NOT_MET"
)

// providerFailure translates a provider error into a domain error. Transport
// failures map by category; business rejections go through the step's
// decision table so the provider's wording decides the outcome.
func (s *Service) providerFailure(ctx context.Context, step models.Step, table *classifier.Table, err error) error {
	var authErr *providers.AuthError
	if errors.As(err, &authErr) || providers.GetCategory(err) == providers.ErrorAuthentication {
		s.logger.ErrorContext(ctx, "provider rejected credentials",
			"step", step,
			"error", err,
		)
		return dErrors.NewReason(dErrors.CodeProviderAuth, reasonProviderAuth, "verification provider rejected our credentials").WithCause(err)
	}

	var pe *providers.ProviderError
	if !errors.As(err, &pe) {
		if ctx.Err() != nil {
			return dErrors.NewReason(dErrors.CodeRetryLater, classifier.ReasonServiceUnavailable, "verification was interrupted, try again").WithCause(err)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "verification failed")
	}

	switch pe.Category {
	case providers.ErrorTimeout, providers.ErrorProviderOutage:
		s.logger.WarnContext(ctx, "provider unavailable",
			"step", step,
			"provider_id", pe.ProviderID,
			"error", err,
		)
		return dErrors.NewReason(dErrors.CodeRetryLater, classifier.ReasonServiceUnavailable, "verification service is temporarily unavailable").WithCause(err)
	case providers.ErrorRateLimited:
		return dErrors.NewReason(dErrors.CodeRetryLater, classifier.ReasonRateLimited, "verification service is busy, try again shortly").WithCause(err)
	case providers.ErrorRejected, providers.ErrorNotFound:
		decision := table.Decide(classifier.Input{Message: pe.Message, StatusCode: pe.StatusCode})
		return decisionError(decision, pe.Message).WithCause(err)
	}

	s.logger.ErrorContext(ctx, "unexpected provider response",
		"step", step,
		"provider_id", pe.ProviderID,
		"category", pe.Category,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "verification provider returned an unexpected response")
}

// decisionError turns a non-passing classifier decision into a domain error
// carrying the provider remark.
func decisionError(d classifier.Decision, remark string) *dErrors.Error {
	var e *dErrors.Error
	switch {
	case d.Action == classifier.RetryLater:
		e = dErrors.NewReason(dErrors.CodeRetryLater, d.Reason, "verification could not complete, try again later")
	case d.Reason == classifier.ReasonInvalidInput:
		e = dErrors.NewReason(dErrors.CodeInvalidInput, d.Reason, "the provider rejected the submitted details")
	default:
		e = dErrors.NewReason(dErrors.CodeProviderBlock, d.Reason, "verification was declined")
	}
	if d.Hint != "" {
		e.WithDetail("suggested_method", d.Hint)
	}
	return e.WithRemark(remark)
}

func prereqNotMet(msg string) error {
	return dErrors.NewReason(dErrors.CodePrereqNotMet, reasonPrereqNotMet, msg)
}
