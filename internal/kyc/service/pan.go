package service

import (
	"context"
	"strings"

	"dsakyc/internal/kyc/classifier"
	"dsakyc/internal/kyc/correlation"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/providers/pan"
	"dsakyc/internal/kyc/tracer"
	"dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
)

// PAN step reasons.
const (
	ReasonPanInvalid          = "PAN_INVALID"
	ReasonPanBlocked          = "PAN_BLOCKED"
	ReasonPanCategoryMismatch = "PAN_CATEGORY_MISMATCH"
	ReasonNameMismatch        = "NAME_MISMATCH"
	ReasonDOBMismatch         = "DOB_MISMATCH"
	ReasonPanAadhaarNotLinked = "PAN_AADHAAR_NOT_LINKED"
)

const expectedPanCategory = "individual"

// blockedPanRemarks are provider remarks that end a PAN's usability.
var blockedPanRemarks = []string{"deceased", "deleted", "liquidated", "merger"}

// PanOutcome is the result of a successful PAN verification.
type PanOutcome struct {
	Verified             bool
	Category             string
	NameMatch            bool
	DobMatch             bool
	AadhaarLinked        bool
	RequiresManualReview bool
	Flags                []models.ManualReviewFlag
}

// VerifyPan verifies a subject's PAN against the identity established by
// Aadhaar. The subject's Aadhaar must already be verified.
func (s *Service) VerifyPan(ctx context.Context, ref SubjectRef, panNumber string) (out *PanOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyPan,
		tracer.String(tracer.AttrApplicationID, ref.ApplicationID.String()),
		tracer.String(tracer.AttrSubjectID, ref.SubjectID.String()),
	)
	defer func() {
		s.recordOutcome(models.StepPAN, out != nil && out.RequiresManualReview, err)
		span.End(err)
	}()

	number, err := domain.ParsePAN(panNumber)
	if err != nil {
		return nil, err
	}

	var flags []models.ManualReviewFlag
	err = s.mutate(ctx, ref.ApplicationID, func(app *models.Application) error {
		subject, err := activeSubject(app, ref.SubjectID)
		if err != nil {
			return err
		}
		aadhaar := subject.Identity.Aadhaar
		if !aadhaar.Verified {
			return prereqNotMet("aadhaar must be verified before pan")
		}

		dob := aadhaar.DOB
		if normalized, err := correlation.NormalizeDOB(dob); err == nil {
			dob = normalized
		}
		result, err := s.pan.Verify(ctx, pan.Request{
			PAN:          number.String(),
			NameAsPerPAN: aadhaar.Name,
			DateOfBirth:  dob,
		})
		if err != nil {
			return s.providerFailure(ctx, models.StepPAN, classifier.Identity, err)
		}
		if err := checkPan(result); err != nil {
			s.logger.InfoContext(ctx, "pan declined",
				"application_id", ref.ApplicationID.String(),
				"subject_id", ref.SubjectID.String(),
				"pan", number.Redacted(),
				"reason", dErrors.ReasonOf(err),
			)
			return err
		}

		linked := result.AadhaarSeedingStatus == "y"
		if result.AadhaarSeedingStatus == "n" {
			flags = append(flags, s.raise(models.StepPAN, ReasonPanAadhaarNotLinked, map[string]string{
				"pan": number.Redacted(),
			}))
		}

		verifiedAt := s.now()
		subject.Identity.Pan = models.PanRecord{
			Verified:       true,
			Number:         number.String(),
			Category:       result.Category,
			NameMatch:      boolOr(result.NameMatch, true),
			DobMatch:       boolOr(result.DobMatch, true),
			AadhaarSeeding: result.AadhaarSeedingStatus,
			VerifiedAt:     &verifiedAt,
		}
		subject.Identity.Flags = append(subject.Identity.Flags, flags...)

		out = &PanOutcome{
			Verified:             true,
			Category:             result.Category,
			NameMatch:            subject.Identity.Pan.NameMatch,
			DobMatch:             subject.Identity.Pan.DobMatch,
			AadhaarLinked:        linked,
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
	return out, nil
}

// checkPan applies the PAN acceptance rules in order. The first failing rule
// decides the error.
func checkPan(r *pan.Result) error {
	if !r.Valid() {
		return dErrors.NewReason(dErrors.CodeProviderBlock, ReasonPanInvalid, "pan is not valid").WithRemark(r.Remarks)
	}
	remark := strings.ToLower(r.Remarks)
	for _, marker := range blockedPanRemarks {
		if strings.Contains(remark, marker) {
			return dErrors.NewReason(dErrors.CodeProviderBlock, ReasonPanBlocked, "pan can no longer be used").WithRemark(r.Remarks)
		}
	}
	if !correlation.MatchCategory(r.Category, expectedPanCategory) {
		return dErrors.NewReason(dErrors.CodeProviderBlock, ReasonPanCategoryMismatch, "pan must belong to an individual").WithRemark(r.Category)
	}
	if r.NameMatch != nil && !*r.NameMatch {
		return dErrors.NewReason(dErrors.CodeProviderBlock, ReasonNameMismatch, "pan name does not match the aadhaar name")
	}
	if r.DobMatch != nil && !*r.DobMatch {
		return dErrors.NewReason(dErrors.CodeProviderBlock, ReasonDOBMismatch, "pan date of birth does not match aadhaar")
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
