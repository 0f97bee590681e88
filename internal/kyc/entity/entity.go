// Package entity decides which subject's identity KYC gates the bank step for
// each legal-entity shape, and where the entity type itself comes from.
package entity

import (
	"fmt"

	"dsakyc/internal/kyc/models"
	dErrors "dsakyc/pkg/domain-errors"
)

// RolePredicate describes the subject that must have verified Aadhaar before
// bank verification may succeed.
type RolePredicate struct {
	EntityType models.EntityType
	Role       models.SubjectRole
	// RequireNameMatch is set when the bank holder name must be compared with
	// the qualifying subject's KYC name.
	RequireNameMatch bool
}

// RequiredIdentity returns the gating rule for an entity type.
func RequiredIdentity(entityType models.EntityType) (RolePredicate, error) {
	switch entityType {
	case models.EntityIndividual, models.EntityProprietorship:
		return RolePredicate{EntityType: entityType, Role: models.RoleSelf, RequireNameMatch: true}, nil
	case models.EntityPartnership:
		return RolePredicate{EntityType: entityType, Role: models.RolePartner}, nil
	case models.EntityCompany, models.EntityLLP, models.EntityOPC:
		return RolePredicate{EntityType: entityType, Role: models.RoleDirector}, nil
	}
	return RolePredicate{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported entity type %q", entityType))
}

// Qualify finds an active subject in the required role with verified Aadhaar.
// The signatory wins when several qualify, then the earliest added.
func (p RolePredicate) Qualify(subjects []*models.Subject) (*models.Subject, bool) {
	var first *models.Subject
	for _, s := range subjects {
		if !s.Active() || s.Role != p.Role || !s.Identity.Aadhaar.Verified {
			continue
		}
		if s.IsSignatory {
			return s, true
		}
		if first == nil {
			first = s
		}
	}
	return first, first != nil
}

// Describe is the human-readable prerequisite, used in PREREQ_NOT_MET errors.
func (p RolePredicate) Describe() string {
	switch p.Role {
	case models.RoleSelf:
		return "the applicant must complete Aadhaar verification before bank verification"
	case models.RolePartner:
		return "at least one partner must complete Aadhaar verification before bank verification"
	default:
		return "at least one director must complete Aadhaar verification before bank verification"
	}
}

// Sources are the places an entity type can be read from, most authoritative first.
type Sources struct {
	Header            string // explicit request header set by the onboarding front end
	TokenClaim        string // claim on the caller's session token
	UserRecord        string // the partner's user profile
	ApplicationRecord string // value stored on the application
}

// ResolveEntityType applies the precedence header, token claim, user record,
// application record. Blank and unrecognised values are skipped.
func ResolveEntityType(src Sources) (models.EntityType, error) {
	for _, candidate := range []string{src.Header, src.TokenClaim, src.UserRecord, src.ApplicationRecord} {
		if et, ok := models.ParseEntityType(candidate); ok {
			return et, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "entity type could not be resolved")
}
