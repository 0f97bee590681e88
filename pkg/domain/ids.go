// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "dsakyc/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing SubjectID where ApplicationID is expected.
type (
	ApplicationID uuid.UUID
	SubjectID     uuid.UUID
)

// NewApplicationID returns a fresh random application identifier.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewSubjectID returns a fresh random subject identifier.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseApplicationID(s string) (ApplicationID, error) {
	id, err := parseUUID(s, "application ID")
	return ApplicationID(id), err
}

func ParseSubjectID(s string) (SubjectID, error) {
	id, err := parseUUID(s, "subject ID")
	return SubjectID(id), err
}

// String methods - for logging and debugging.

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) String() string     { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets IDs travel through JSON and BSON documents as plain strings.
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SubjectID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ApplicationID(u)
	return nil
}

func (id *SubjectID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SubjectID(u)
	return nil
}

// parseUUID is the shared validation logic.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
