package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsakyc/internal/kyc/models"
	id "dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
)

func subject(role models.SubjectRole, verified bool) *models.Subject {
	return &models.Subject{
		ID:   id.NewSubjectID(),
		Role: role,
		Identity: models.IdentityRecord{Aadhaar: models.AadhaarRecord{
			Verified: verified,
		}},
	}
}

func TestRequiredIdentity(t *testing.T) {
	tests := []struct {
		entity    models.EntityType
		role      models.SubjectRole
		nameMatch bool
	}{
		{models.EntityIndividual, models.RoleSelf, true},
		{models.EntityProprietorship, models.RoleSelf, true},
		{models.EntityPartnership, models.RolePartner, false},
		{models.EntityCompany, models.RoleDirector, false},
		{models.EntityLLP, models.RoleDirector, false},
		{models.EntityOPC, models.RoleDirector, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			p, err := RequiredIdentity(tt.entity)
			require.NoError(t, err)
			assert.Equal(t, tt.role, p.Role)
			assert.Equal(t, tt.nameMatch, p.RequireNameMatch)
			assert.NotEmpty(t, p.Describe())
		})
	}

	_, err := RequiredIdentity("trust")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestQualifyPartnership(t *testing.T) {
	p, err := RequiredIdentity(models.EntityPartnership)
	require.NoError(t, err)

	t.Run("any verified partner qualifies", func(t *testing.T) {
		verified := subject(models.RolePartner, true)
		got, ok := p.Qualify([]*models.Subject{subject(models.RolePartner, false), verified})
		require.True(t, ok)
		assert.Equal(t, verified.ID, got.ID)
	})

	t.Run("no verified partner", func(t *testing.T) {
		_, ok := p.Qualify([]*models.Subject{subject(models.RolePartner, false), subject(models.RoleDirector, true)})
		assert.False(t, ok)
	})

	t.Run("removed partner does not count", func(t *testing.T) {
		removed := subject(models.RolePartner, true)
		now := time.Now()
		removed.RemovedAt = &now
		_, ok := p.Qualify([]*models.Subject{removed})
		assert.False(t, ok)
	})

	t.Run("signatory preferred", func(t *testing.T) {
		first := subject(models.RolePartner, true)
		signatory := subject(models.RolePartner, true)
		signatory.IsSignatory = true
		got, ok := p.Qualify([]*models.Subject{first, signatory})
		require.True(t, ok)
		assert.Equal(t, signatory.ID, got.ID)
	})
}

func TestQualifyIndividualNeedsSelf(t *testing.T) {
	p, err := RequiredIdentity(models.EntityIndividual)
	require.NoError(t, err)

	_, ok := p.Qualify([]*models.Subject{subject(models.RoleDirector, true)})
	assert.False(t, ok)

	self := subject(models.RoleSelf, true)
	got, ok := p.Qualify([]*models.Subject{self})
	require.True(t, ok)
	assert.Equal(t, self.ID, got.ID)
}

func TestResolveEntityTypePrecedence(t *testing.T) {
	tests := []struct {
		name string
		src  Sources
		want models.EntityType
	}{
		{"header wins", Sources{Header: "company", TokenClaim: "partnership", UserRecord: "individual", ApplicationRecord: "llp"}, models.EntityCompany},
		{"token claim next", Sources{TokenClaim: "partnership", UserRecord: "individual", ApplicationRecord: "llp"}, models.EntityPartnership},
		{"user record next", Sources{UserRecord: "Individual", ApplicationRecord: "llp"}, models.EntityIndividual},
		{"application record last", Sources{ApplicationRecord: "opc"}, models.EntityOPC},
		{"invalid header skipped", Sources{Header: "trust", TokenClaim: "proprietorship"}, models.EntityProprietorship},
		{"blank header skipped", Sources{Header: "  ", UserRecord: "llp"}, models.EntityLLP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEntityType(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveEntityType(Sources{Header: "trust"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
