package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dsakyc/internal/kyc/classifier"
	"dsakyc/internal/kyc/correlation"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/tracer"
	"dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
)

// Review reasons raised by the identity step.
const (
	ReasonDeclaredNameMismatch = "DECLARED_NAME_MISMATCH"
	ReasonDeclaredDOBMismatch  = "DECLARED_DOB_MISMATCH"
	ReasonAadhaarDOBUnreadable = "AADHAAR_DOB_UNREADABLE"
)

// OtpSent is returned once the provider has texted an OTP.
type OtpSent struct {
	ReferenceID string
	ExpiresAt   time.Time
}

// IdentityOutcome is the result of a successful Aadhaar verification.
type IdentityOutcome struct {
	Verified             bool
	MaskedID             string
	Name                 string
	DOB                  string
	RawPayload           json.RawMessage
	RequiresManualReview bool
	Flags                []models.ManualReviewFlag
}

// SendIdentityOtp starts Aadhaar OKYC for a subject. A subject may request a
// fresh OTP until it is verified.
func (s *Service) SendIdentityOtp(ctx context.Context, ref SubjectRef, nationalID string) (out *OtpSent, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSendOtp,
		tracer.String(tracer.AttrApplicationID, ref.ApplicationID.String()),
		tracer.String(tracer.AttrSubjectID, ref.SubjectID.String()),
	)
	defer func() { span.End(err) }()

	aadhaar, err := domain.ParseAadhaar(nationalID)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, ref.ApplicationID, func(app *models.Application) error {
		subject, err := activeSubject(app, ref.SubjectID)
		if err != nil {
			return err
		}
		if subject.Identity.Aadhaar.Verified {
			return dErrors.NewReason(dErrors.CodeConflict, "ALREADY_VERIFIED", "aadhaar is already verified for this subject")
		}

		referenceID, err := s.identity.GenerateOTP(ctx, aadhaar.String())
		if err != nil {
			return s.providerFailure(ctx, models.StepAadhaar, classifier.Identity, err)
		}

		sentAt := s.now()
		record := &subject.Identity.Aadhaar
		record.State = models.AadhaarOtpSent
		record.ReferenceID = referenceID
		record.OtpSentAt = &sentAt
		record.MaskedNumber = aadhaar.Masked()

		out = &OtpSent{ReferenceID: referenceID, ExpiresAt: sentAt.Add(s.otpValidity)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "aadhaar otp sent",
		"application_id", ref.ApplicationID.String(),
		"subject_id", ref.SubjectID.String(),
	)
	return out, nil
}

// VerifyIdentityOtp completes Aadhaar OKYC. The Aadhaar name and date of birth
// become the reference identity for the PAN and bank steps. Differences from
// what the subject declared are flagged for review, never blocked.
func (s *Service) VerifyIdentityOtp(ctx context.Context, ref SubjectRef, referenceID, otp string) (out *IdentityOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyOtp,
		tracer.String(tracer.AttrApplicationID, ref.ApplicationID.String()),
		tracer.String(tracer.AttrSubjectID, ref.SubjectID.String()),
	)
	defer func() {
		s.recordOutcome(models.StepAadhaar, out != nil && out.RequiresManualReview, err)
		span.End(err)
	}()

	referenceID = strings.TrimSpace(referenceID)
	otp = strings.TrimSpace(otp)
	if referenceID == "" {
		return nil, dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT", "reference id is required")
	}
	if !isOTP(otp) {
		return nil, dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT", "otp must be 6 digits")
	}

	var flags []models.ManualReviewFlag
	err = s.mutate(ctx, ref.ApplicationID, func(app *models.Application) error {
		subject, err := activeSubject(app, ref.SubjectID)
		if err != nil {
			return err
		}
		record := &subject.Identity.Aadhaar
		switch {
		case record.Verified:
			return dErrors.NewReason(dErrors.CodeConflict, "ALREADY_VERIFIED", "aadhaar is already verified for this subject")
		case record.State != models.AadhaarOtpSent || record.OtpSentAt == nil:
			return prereqNotMet("request an aadhaar otp first")
		case record.ReferenceID != referenceID:
			return dErrors.NewReason(dErrors.CodeProviderBlock, classifier.ReasonOTPInvalid, "reference id does not match the latest otp")
		case s.now().Sub(*record.OtpSentAt) > s.otpValidity:
			return dErrors.NewReason(dErrors.CodeProviderBlock, classifier.ReasonOTPExpired, "otp has expired, request a new one")
		}

		result, err := s.identity.VerifyOTP(ctx, referenceID, otp)
		if err != nil {
			return s.providerFailure(ctx, models.StepAadhaar, classifier.Identity, err)
		}

		dob, dobErr := correlation.NormalizeDOB(result.DateOfBirth)
		if dobErr != nil {
			dob = result.DateOfBirth
			flags = append(flags, s.raise(models.StepAadhaar, ReasonAadhaarDOBUnreadable,
				map[string]string{"aadhaar_dob": result.DateOfBirth}))
		}
		flags = append(flags, s.declaredMismatches(subject, result.Name, dob, dobErr == nil)...)

		verifiedAt := s.now()
		record.State = models.AadhaarVerified
		record.Verified = true
		record.Name = result.Name
		record.DOB = dob
		record.RawPayload = result.RawPayload
		record.VerifiedAt = &verifiedAt
		if record.MaskedNumber == "" && result.ShareCode != "" {
			record.MaskedNumber = domain.MaskWithShareCode(result.ShareCode)
		}
		subject.Identity.Flags = append(subject.Identity.Flags, flags...)

		out = &IdentityOutcome{
			Verified:             true,
			MaskedID:             record.MaskedNumber,
			Name:                 record.Name,
			DOB:                  record.DOB,
			RawPayload:           record.RawPayload,
			RequiresManualReview: len(flags) > 0,
			Flags:                flags,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	subjectID := ref.SubjectID
	s.publish(ctx, ref.ApplicationID, &subjectID, flags)
	s.logger.InfoContext(ctx, "aadhaar verified",
		"application_id", ref.ApplicationID.String(),
		"subject_id", ref.SubjectID.String(),
		"flags", len(flags),
	)
	return out, nil
}

// declaredMismatches compares the Aadhaar identity with what the subject
// declared on registration.
func (s *Service) declaredMismatches(subject *models.Subject, aadhaarName, aadhaarDOB string, dobReadable bool) []models.ManualReviewFlag {
	var flags []models.ManualReviewFlag
	if subject.DisplayName != "" {
		if match := s.names.Match(subject.DisplayName, aadhaarName); !match.Valid {
			flags = append(flags, s.raise(models.StepAadhaar, ReasonDeclaredNameMismatch, map[string]string{
				"declared_name": subject.DisplayName,
				"aadhaar_name":  aadhaarName,
				"similarity":    fmt.Sprintf("%.2f", match.Similarity),
			}))
		}
	}
	if subject.DeclaredDOB != "" && dobReadable && !correlation.MatchDob(subject.DeclaredDOB, aadhaarDOB) {
		flags = append(flags, s.raise(models.StepAadhaar, ReasonDeclaredDOBMismatch, map[string]string{
			"declared_dob": subject.DeclaredDOB,
			"aadhaar_dob":  aadhaarDOB,
		}))
	}
	return flags
}

func isOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
