package validation

import (
	"fmt"

	dErrors "dsakyc/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (64 KB).
	MaxBodySize = 64 * 1024
)

// String element length limits
const (
	MaxNameLength        = 200
	MaxEmailLength       = 255
	MaxEntityTypeLength  = 32
	MaxReferenceIDLength = 128
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
