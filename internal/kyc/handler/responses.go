package handler

import (
	"encoding/json"
	"time"

	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/service"
	id "dsakyc/pkg/domain"
)

// ApplicationResponse is the external view of an application. Stored PAN and
// account numbers are returned redacted.
type ApplicationResponse struct {
	ID         string             `json:"id"`
	EntityType string             `json:"entity_type"`
	Subjects   []*SubjectResponse `json:"subjects"`
	Bank       *BankRecordView    `json:"bank,omitempty"`
	Version    int64              `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type SubjectResponse struct {
	ID          string                    `json:"id"`
	Role        string                    `json:"role"`
	DisplayName string                    `json:"display_name"`
	IsSignatory bool                      `json:"is_signatory"`
	Removed     bool                      `json:"removed"`
	Aadhaar     AadhaarView               `json:"aadhaar"`
	Pan         PanView                   `json:"pan"`
	Flags       []models.ManualReviewFlag `json:"flags,omitempty"`
}

type AadhaarView struct {
	State        string     `json:"state"`
	Verified     bool       `json:"verified"`
	MaskedNumber string     `json:"masked_number,omitempty"`
	Name         string     `json:"name,omitempty"`
	DOB          string     `json:"dob,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

type PanView struct {
	Verified       bool       `json:"verified"`
	Number         string     `json:"number,omitempty"`
	Category       string     `json:"category,omitempty"`
	NameMatch      bool       `json:"name_match"`
	DobMatch       bool       `json:"dob_match"`
	AadhaarSeeding string     `json:"aadhaar_seeding,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
}

type BankRecordView struct {
	AccountNumber        string                    `json:"account_number"`
	IFSC                 string                    `json:"ifsc"`
	Method               string                    `json:"method"`
	Verified             bool                      `json:"verified"`
	HolderName           string                    `json:"holder_name,omitempty"`
	RequiresManualReview bool                      `json:"requires_manual_review"`
	ReviewReason         string                    `json:"review_reason,omitempty"`
	Mismatch             *models.NameMismatch      `json:"mismatch,omitempty"`
	ReferenceSubjectID   string                    `json:"reference_subject_id,omitempty"`
	VerifiedAt           *time.Time                `json:"verified_at,omitempty"`
	Flags                []models.ManualReviewFlag `json:"flags,omitempty"`
}

type OtpSentResponse struct {
	ReferenceID string    `json:"reference_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type IdentityResponse struct {
	Verified             bool                      `json:"verified"`
	MaskedID             string                    `json:"masked_id"`
	Name                 string                    `json:"name"`
	DOB                  string                    `json:"dob"`
	RawPayload           json.RawMessage           `json:"raw_payload,omitempty"`
	RequiresManualReview bool                      `json:"requires_manual_review"`
	Flags                []models.ManualReviewFlag `json:"flags,omitempty"`
}

type PanResponse struct {
	Verified             bool                      `json:"verified"`
	Category             string                    `json:"category"`
	NameMatch            bool                      `json:"name_match"`
	DobMatch             bool                      `json:"dob_match"`
	AadhaarLinked        bool                      `json:"aadhaar_linked"`
	RequiresManualReview bool                      `json:"requires_manual_review"`
	Flags                []models.ManualReviewFlag `json:"flags,omitempty"`
}

type BankResponse struct {
	Verified             bool                 `json:"verified"`
	HolderName           string               `json:"holder_name"`
	Method               string               `json:"method"`
	RequiresManualReview bool                 `json:"requires_manual_review"`
	ReviewReason         string               `json:"review_reason,omitempty"`
	Mismatch             *models.NameMismatch `json:"mismatch,omitempty"`
	ReferenceSubjectID   string               `json:"reference_subject_id"`
	ProviderReference    string               `json:"provider_reference,omitempty"`
}

func toApplicationResponse(app *models.Application) *ApplicationResponse {
	res := &ApplicationResponse{
		ID:         app.ID.String(),
		EntityType: string(app.EntityType),
		Subjects:   make([]*SubjectResponse, 0, len(app.Subjects)),
		Version:    app.Version,
		CreatedAt:  app.CreatedAt,
		UpdatedAt:  app.UpdatedAt,
	}
	for _, subject := range app.Subjects {
		res.Subjects = append(res.Subjects, toSubjectResponse(subject))
	}
	if app.Bank != nil {
		res.Bank = toBankRecordView(app.Bank)
	}
	return res
}

func toSubjectResponse(subject *models.Subject) *SubjectResponse {
	aadhaar := subject.Identity.Aadhaar
	pan := subject.Identity.Pan
	res := &SubjectResponse{
		ID:          subject.ID.String(),
		Role:        string(subject.Role),
		DisplayName: subject.DisplayName,
		IsSignatory: subject.IsSignatory,
		Removed:     !subject.Active(),
		Aadhaar: AadhaarView{
			State:        string(aadhaar.State),
			Verified:     aadhaar.Verified,
			MaskedNumber: aadhaar.MaskedNumber,
			Name:         aadhaar.Name,
			DOB:          aadhaar.DOB,
			VerifiedAt:   aadhaar.VerifiedAt,
		},
		Pan: PanView{
			Verified:       pan.Verified,
			Category:       pan.Category,
			NameMatch:      pan.NameMatch,
			DobMatch:       pan.DobMatch,
			AadhaarSeeding: pan.AadhaarSeeding,
			VerifiedAt:     pan.VerifiedAt,
		},
		Flags: subject.Identity.Flags,
	}
	if pan.Number != "" {
		res.Pan.Number = id.PAN(pan.Number).Redacted()
	}
	if res.Aadhaar.State == "" {
		res.Aadhaar.State = string(models.AadhaarNotStarted)
	}
	return res
}

func toBankRecordView(record *models.BankVerificationRecord) *BankRecordView {
	view := &BankRecordView{
		AccountNumber:        id.AccountNumber(record.AccountNumber).Redacted(),
		IFSC:                 record.IFSC,
		Method:               string(record.Method),
		Verified:             record.Verified,
		HolderName:           record.HolderName,
		RequiresManualReview: record.RequiresManualReview,
		ReviewReason:         record.ReviewReason,
		Mismatch:             record.Mismatch,
		VerifiedAt:           record.VerifiedAt,
		Flags:                record.Flags,
	}
	if record.ReferenceSubjectID != nil {
		view.ReferenceSubjectID = record.ReferenceSubjectID.String()
	}
	return view
}

func toIdentityResponse(out *service.IdentityOutcome) *IdentityResponse {
	return &IdentityResponse{
		Verified:             out.Verified,
		MaskedID:             out.MaskedID,
		Name:                 out.Name,
		DOB:                  out.DOB,
		RawPayload:           out.RawPayload,
		RequiresManualReview: out.RequiresManualReview,
		Flags:                out.Flags,
	}
}

func toPanResponse(out *service.PanOutcome) *PanResponse {
	return &PanResponse{
		Verified:             out.Verified,
		Category:             out.Category,
		NameMatch:            out.NameMatch,
		DobMatch:             out.DobMatch,
		AadhaarLinked:        out.AadhaarLinked,
		RequiresManualReview: out.RequiresManualReview,
		Flags:                out.Flags,
	}
}

func toBankResponse(out *service.BankOutcome) *BankResponse {
	return &BankResponse{
		Verified:             out.Verified,
		HolderName:           out.HolderName,
		Method:               string(out.Method),
		RequiresManualReview: out.RequiresManualReview,
		ReviewReason:         out.ReviewReason,
		Mismatch:             out.Mismatch,
		ReferenceSubjectID:   out.ReferenceSubjectID.String(),
		ProviderReference:    out.ProviderReference,
	}
}
