package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dsakyc/internal/kyc/classifier"
	"dsakyc/internal/kyc/entity"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/providers"
	"dsakyc/internal/kyc/providers/bank"
	"dsakyc/internal/kyc/tracer"
	id "dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
)

// BankRequest is an account ownership check. Method defaults to penny drop.
type BankRequest struct {
	IFSC          string
	AccountNumber string
	Method        string
}

// BankOutcome is the result of a bank check that did not block.
type BankOutcome struct {
	Verified             bool
	HolderName           string
	Method               models.BankMethod
	RequiresManualReview bool
	ReviewReason         string
	Mismatch             *models.NameMismatch
	ReferenceSubjectID   id.SubjectID
	ProviderReference    string
}

// VerifyBank checks the application's payout account. At least one subject
// qualifying for the entity type must have verified Aadhaar first. A repeated
// check replaces the previous record.
func (s *Service) VerifyBank(ctx context.Context, appID id.ApplicationID, req BankRequest) (out *BankOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyBank, tracer.String(tracer.AttrApplicationID, appID.String()))
	defer func() {
		s.recordOutcome(models.StepBank, out != nil && out.RequiresManualReview, err)
		span.End(err)
	}()

	ifsc, err := id.ParseIFSC(req.IFSC)
	if err != nil {
		return nil, err
	}
	account, err := id.ParseAccountNumber(req.AccountNumber)
	if err != nil {
		return nil, err
	}
	method, err := parseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrBankMethod, string(method)))

	var flags []models.ManualReviewFlag
	err = s.mutate(ctx, appID, func(app *models.Application) error {
		predicate, err := entity.RequiredIdentity(app.EntityType)
		if err != nil {
			return err
		}
		reference, ok := predicate.Qualify(app.Subjects)
		if !ok {
			return prereqNotMet(predicate.Describe())
		}
		referenceID := reference.ID
		kycName := reference.Identity.Aadhaar.Name

		if s.ifscCheck {
			if err := s.precheckIFSC(ctx, ifsc); err != nil {
				return err
			}
		}

		result, err := s.checkAccount(ctx, method, ifsc, account, kycName)
		if err != nil {
			return err
		}

		decision := classifier.Bank.Decide(classifier.Input{
			Message:    result.Message,
			StatusCode: result.StatusCode,
			Exists:     result.AccountExists,
		})
		span.SetAttributes(tracer.String(tracer.AttrOutcome, string(decision.Action)), tracer.String(tracer.AttrReason, decision.Reason))
		switch decision.Action {
		case classifier.Block, classifier.RetryLater:
			s.logger.InfoContext(ctx, "bank verification declined",
				"application_id", appID.String(),
				"account", account.Redacted(),
				"action", decision.Action,
				"reason", decision.Reason,
			)
			return decisionError(bankDecision(decision), result.Message)
		case classifier.Flag:
			flags = append(flags, s.raise(models.StepBank, decision.Reason, map[string]string{
				"message": result.Message,
			}))
		}

		record := &models.BankVerificationRecord{
			HolderName:         result.NameAtBank,
			AccountNumber:      account.String(),
			IFSC:               ifsc.String(),
			Method:             method,
			Verified:           true,
			ProviderReference:  result.Reference,
			ReferenceSubjectID: &referenceID,
		}

		if predicate.RequireNameMatch {
			match := s.names.Match(result.NameAtBank, kycName)
			span.SetAttributes(tracer.Float64(tracer.AttrSimilarity, match.Similarity))
			if !match.Valid {
				record.Mismatch = &models.NameMismatch{
					BankName:   result.NameAtBank,
					KYCName:    kycName,
					Similarity: match.Similarity,
				}
				flags = append(flags, s.raise(models.StepBank, ReasonNameMismatch, map[string]string{
					"bank_name":  result.NameAtBank,
					"kyc_name":   kycName,
					"similarity": fmt.Sprintf("%.2f", match.Similarity),
				}))
			}
		}

		if len(flags) > 0 {
			record.RequiresManualReview = true
			record.ReviewReason = flags[0].ReasonCode
			record.Flags = flags
		}
		verifiedAt := s.now()
		record.VerifiedAt = &verifiedAt
		app.Bank = record

		out = &BankOutcome{
			Verified:             true,
			HolderName:           record.HolderName,
			Method:               method,
			RequiresManualReview: record.RequiresManualReview,
			ReviewReason:         record.ReviewReason,
			Mismatch:             record.Mismatch,
			ReferenceSubjectID:   referenceID,
			ProviderReference:    record.ProviderReference,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, f := range flags {
		span.AddEvent(tracer.EventReviewFlagged, tracer.String(tracer.AttrReason, f.ReasonCode))
	}
	s.publish(ctx, appID, nil, flags)
	s.logger.InfoContext(ctx, "bank verified",
		"application_id", appID.String(),
		"account", account.Redacted(),
		"method", method,
		"requires_review", out.RequiresManualReview,
	)
	return out, nil
}

func (s *Service) checkAccount(ctx context.Context, method models.BankMethod, ifsc id.IFSC, account id.AccountNumber, name string) (*bank.Result, error) {
	var (
		result *bank.Result
		err    error
	)
	if method == models.MethodPenniless {
		result, err = s.bank.Pennyless(ctx, ifsc.String(), account.String(), name)
	} else {
		result, err = s.bank.PennyDrop(ctx, ifsc.String(), account.String(), name)
	}
	if err != nil {
		return nil, s.bankFailure(ctx, err)
	}
	return result, nil
}

// bankFailure classifies non-2xx bank answers with the bank table so the
// provider wording wins over the bare status.
func (s *Service) bankFailure(ctx context.Context, err error) error {
	translated := s.providerFailure(ctx, models.StepBank, classifier.Bank, err)
	var de *dErrors.Error
	if errors.As(translated, &de) && de.Reason == classifier.ReasonNotFound {
		de.Reason = classifier.ReasonAccountNotFound
	}
	return translated
}

func (s *Service) precheckIFSC(ctx context.Context, ifsc id.IFSC) error {
	details, err := s.bank.LookupIFSC(ctx, ifsc.String())
	if err == nil {
		s.logger.DebugContext(ctx, "ifsc resolved", "ifsc", ifsc.String(), "bank", details.Bank, "imps", details.IMPS)
		return nil
	}
	if providers.GetCategory(err) == providers.ErrorNotFound {
		return dErrors.NewReason(dErrors.CodeInvalidInput, classifier.ReasonNotFound, "ifsc is not recognised").WithCause(err)
	}
	return s.providerFailure(ctx, models.StepBank, classifier.Bank, err)
}

// bankDecision narrows generic decisions to the bank vocabulary.
func bankDecision(d classifier.Decision) classifier.Decision {
	if d.Reason == classifier.ReasonNotFound {
		d.Reason = classifier.ReasonAccountNotFound
	}
	return d
}

func parseMethod(s string) (models.BankMethod, error) {
	switch models.BankMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", models.MethodPenny:
		return models.MethodPenny, nil
	case models.MethodPenniless:
		return models.MethodPenniless, nil
	}
	return "", dErrors.NewReason(dErrors.CodeValidation, classifier.ReasonInvalidInput, "method must be penny or penniless")
}
