package service

import (
	"context"
	"strings"

	"dsakyc/internal/kyc/correlation"
	"dsakyc/internal/kyc/entity"
	"dsakyc/internal/kyc/models"
	"dsakyc/internal/kyc/tracer"
	id "dsakyc/pkg/domain"
	dErrors "dsakyc/pkg/domain-errors"
)

// SubjectInput describes a person added to an application.
type SubjectInput struct {
	Role        string
	DisplayName string
	Mobile      string
	Email       string
	DeclaredDOB string
	IsSignatory bool
}

// RegisterApplication opens an application for the entity type resolved from src.
func (s *Service) RegisterApplication(ctx context.Context, src entity.Sources) (app *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRegister)
	defer func() { span.End(err) }()

	entityType, err := entity.ResolveEntityType(src)
	if err != nil {
		return nil, err
	}

	now := s.now()
	app = &models.Application{
		ID:         id.NewApplicationID(),
		EntityType: entityType,
		Subjects:   []*models.Subject{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, translateStoreError(err)
	}
	span.SetAttributes(
		tracer.String(tracer.AttrApplicationID, app.ID.String()),
		tracer.String(tracer.AttrEntityType, string(entityType)),
	)
	s.logger.InfoContext(ctx, "application registered",
		"application_id", app.ID.String(),
		"entity_type", entityType,
	)
	return app, nil
}

// AddSubject attaches a person to the application. The role must fit the
// entity type: self for individuals and proprietors, partner for
// partnerships and director for companies.
func (s *Service) AddSubject(ctx context.Context, appID id.ApplicationID, in SubjectInput) (*models.Subject, error) {
	role, ok := models.ParseSubjectRole(in.Role)
	if !ok {
		return nil, dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT", "role must be self, partner or director")
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT", "display name is required")
	}
	declaredDOB := ""
	if strings.TrimSpace(in.DeclaredDOB) != "" {
		dob, err := correlation.NormalizeDOB(in.DeclaredDOB)
		if err != nil {
			return nil, dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT", "declared date of birth is not a valid date")
		}
		declaredDOB = dob
	}

	var added *models.Subject
	err := s.mutate(ctx, appID, func(app *models.Application) error {
		predicate, err := entity.RequiredIdentity(app.EntityType)
		if err != nil {
			return err
		}
		if role != predicate.Role {
			return dErrors.NewReason(dErrors.CodeValidation, "INVALID_INPUT",
				"a "+string(app.EntityType)+" application only accepts "+string(predicate.Role)+" subjects")
		}
		if app.EntityType.IsIndividualLike() && len(app.ActiveSubjects()) > 0 {
			return dErrors.NewReason(dErrors.CodeConflict, "SUBJECT_EXISTS", "this application already has its applicant")
		}

		added = &models.Subject{
			ID:          id.NewSubjectID(),
			Role:        role,
			DisplayName: name,
			Mobile:      strings.TrimSpace(in.Mobile),
			Email:       strings.TrimSpace(in.Email),
			DeclaredDOB: declaredDOB,
			Identity: models.IdentityRecord{
				Aadhaar: models.AadhaarRecord{State: models.AadhaarNotStarted},
			},
			CreatedAt: s.now(),
		}
		app.Subjects = append(app.Subjects, added)

		// The sole applicant of an individual-like entity always signs.
		if in.IsSignatory || app.EntityType.IsIndividualLike() {
			assignSignatory(app, added.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// SetSignatory makes the subject the only signatory of the application.
func (s *Service) SetSignatory(ctx context.Context, ref SubjectRef) error {
	return s.mutate(ctx, ref.ApplicationID, func(app *models.Application) error {
		if _, err := activeSubject(app, ref.SubjectID); err != nil {
			return err
		}
		assignSignatory(app, ref.SubjectID)
		return nil
	})
}

// RemoveSubject drops a subject. Once any KYC step has started the subject is
// only marked removed so its verification history is kept.
func (s *Service) RemoveSubject(ctx context.Context, ref SubjectRef) error {
	return s.mutate(ctx, ref.ApplicationID, func(app *models.Application) error {
		subject, err := activeSubject(app, ref.SubjectID)
		if err != nil {
			return err
		}
		if !subject.Identity.Started() {
			app.DropSubject(ref.SubjectID)
			return nil
		}
		removedAt := s.now()
		subject.RemovedAt = &removedAt
		subject.IsSignatory = false
		s.logger.InfoContext(ctx, "subject soft-removed",
			"application_id", ref.ApplicationID.String(),
			"subject_id", ref.SubjectID.String(),
		)
		return nil
	})
}

func assignSignatory(app *models.Application, subjectID id.SubjectID) {
	for _, subject := range app.Subjects {
		subject.IsSignatory = subject.ID == subjectID
	}
}
