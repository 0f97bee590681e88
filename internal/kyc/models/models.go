// Package models holds the application document the verification engine reads
// and writes.
package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	id "dsakyc/pkg/domain"
)

// EntityType is the legal shape of the onboarding partner.
type EntityType string

const (
	EntityIndividual     EntityType = "individual"
	EntityProprietorship EntityType = "proprietorship"
	EntityPartnership    EntityType = "partnership"
	EntityCompany        EntityType = "company"
	EntityLLP            EntityType = "llp"
	EntityOPC            EntityType = "opc"
)

// ParseEntityType accepts the known entity types, case-insensitively.
func ParseEntityType(s string) (EntityType, bool) {
	switch e := EntityType(normalize(s)); e {
	case EntityIndividual, EntityProprietorship, EntityPartnership, EntityCompany, EntityLLP, EntityOPC:
		return e, true
	}
	return "", false
}

// IsIndividualLike reports entity types represented by a single natural person.
func (e EntityType) IsIndividualLike() bool {
	return e == EntityIndividual || e == EntityProprietorship
}

// SubjectRole is how a person relates to the entity.
type SubjectRole string

const (
	RoleSelf     SubjectRole = "self"
	RolePartner  SubjectRole = "partner"
	RoleDirector SubjectRole = "director"
)

func ParseSubjectRole(s string) (SubjectRole, bool) {
	switch r := SubjectRole(normalize(s)); r {
	case RoleSelf, RolePartner, RoleDirector:
		return r, true
	}
	return "", false
}

// Step names the verification stage that raised a flag.
type Step string

const (
	StepAadhaar Step = "aadhaar"
	StepPAN     Step = "pan"
	StepBank    Step = "bank"
)

// AadhaarState is the OKYC progression of one subject.
type AadhaarState string

const (
	AadhaarNotStarted AadhaarState = "not_started"
	AadhaarOtpSent    AadhaarState = "otp_sent"
	AadhaarVerified   AadhaarState = "verified"
)

// BankMethod selects the account ownership check.
type BankMethod string

const (
	MethodPenny     BankMethod = "penny"
	MethodPenniless BankMethod = "penniless"
)

// ManualReviewFlag annotates a step for a human reviewer. It never blocks.
type ManualReviewFlag struct {
	ReasonCode string            `json:"reason_code"`
	Detail     map[string]string `json:"detail,omitempty"`
	RaisedBy   Step              `json:"raised_by"`
	RaisedAt   time.Time         `json:"raised_at"`
}

type AadhaarRecord struct {
	State        AadhaarState    `json:"state"`
	Verified     bool            `json:"verified"`
	MaskedNumber string          `json:"masked_number,omitempty"`
	ReferenceID  string          `json:"reference_id,omitempty"`
	OtpSentAt    *time.Time      `json:"otp_sent_at,omitempty"`
	Name         string          `json:"name,omitempty"`
	DOB          string          `json:"dob,omitempty"` // DD/MM/YYYY
	RawPayload   json.RawMessage `json:"raw_payload,omitempty"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
}

type PanRecord struct {
	Verified       bool       `json:"verified"`
	Number         string     `json:"number,omitempty"`
	Category       string     `json:"category,omitempty"`
	NameMatch      bool       `json:"name_match"`
	DobMatch       bool       `json:"dob_match"`
	AadhaarSeeding string     `json:"aadhaar_seeding,omitempty"` // y, n or na
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
}

// IdentityRecord is the KYC state of one subject. PAN is only ever verified
// after Aadhaar.
type IdentityRecord struct {
	Aadhaar AadhaarRecord      `json:"aadhaar"`
	Pan     PanRecord          `json:"pan"`
	Flags   []ManualReviewFlag `json:"flags,omitempty"`
}

// Started reports whether any KYC step has been attempted.
func (r IdentityRecord) Started() bool {
	return r.Aadhaar.State != "" && r.Aadhaar.State != AadhaarNotStarted
}

// Subject is a person whose identity is verified for the application.
type Subject struct {
	ID          id.SubjectID   `json:"id"`
	Role        SubjectRole    `json:"role"`
	DisplayName string         `json:"display_name"`
	Mobile      string         `json:"mobile,omitempty"`
	Email       string         `json:"email,omitempty"`
	DeclaredDOB string         `json:"declared_dob,omitempty"`
	IsSignatory bool           `json:"is_signatory"`
	Identity    IdentityRecord `json:"identity"`
	RemovedAt   *time.Time     `json:"removed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Active reports whether the subject has not been soft-removed.
func (s *Subject) Active() bool {
	return s.RemovedAt == nil
}

// NameMismatch records a bank holder name that did not match the KYC name.
type NameMismatch struct {
	BankName   string  `json:"bank_name"`
	KYCName    string  `json:"kyc_name"`
	Similarity float64 `json:"similarity"`
}

// BankVerificationRecord is the single bank check of an application.
// Verified is only set once a qualifying subject has verified Aadhaar.
type BankVerificationRecord struct {
	HolderName           string             `json:"holder_name,omitempty"`
	AccountNumber        string             `json:"account_number"`
	IFSC                 string             `json:"ifsc"`
	Method               BankMethod         `json:"method"`
	Verified             bool               `json:"verified"`
	RequiresManualReview bool               `json:"requires_manual_review"`
	ReviewReason         string             `json:"review_reason,omitempty"`
	Mismatch             *NameMismatch      `json:"mismatch,omitempty"`
	ReferenceSubjectID   *id.SubjectID      `json:"reference_subject_id,omitempty"`
	ProviderReference    string             `json:"provider_reference,omitempty"`
	VerifiedAt           *time.Time         `json:"verified_at,omitempty"`
	Flags                []ManualReviewFlag `json:"flags,omitempty"`
}

// Application is the onboarding document for one DSA partner.
type Application struct {
	ID         id.ApplicationID        `json:"id"`
	EntityType EntityType              `json:"entity_type"`
	Subjects   []*Subject              `json:"subjects"`
	Bank       *BankVerificationRecord `json:"bank,omitempty"`
	Version    int64                   `json:"version"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Subject finds a subject by id, removed or not.
func (a *Application) Subject(subjectID id.SubjectID) (*Subject, bool) {
	for _, s := range a.Subjects {
		if s.ID == subjectID {
			return s, true
		}
	}
	return nil, false
}

// ActiveSubjects returns the subjects that have not been removed.
func (a *Application) ActiveSubjects() []*Subject {
	out := make([]*Subject, 0, len(a.Subjects))
	for _, s := range a.Subjects {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// Signatory returns the active signatory, if any.
func (a *Application) Signatory() (*Subject, bool) {
	for _, s := range a.Subjects {
		if s.Active() && s.IsSignatory {
			return s, true
		}
	}
	return nil, false
}

// DropSubject removes a subject from the slice outright.
func (a *Application) DropSubject(subjectID id.SubjectID) {
	a.Subjects = slices.DeleteFunc(a.Subjects, func(s *Subject) bool { return s.ID == subjectID })
}

// Clone deep-copies the application through its JSON form so stores never
// share mutable state with callers.
func (a *Application) Clone() *Application {
	b, err := json.Marshal(a)
	if err != nil {
		panic("models: application not serialisable: " + err.Error())
	}
	var out Application
	if err := json.Unmarshal(b, &out); err != nil {
		panic("models: application not deserialisable: " + err.Error())
	}
	return &out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
