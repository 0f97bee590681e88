// Package sentinel holds the dependency errors shared by stores, lockers and
// other infrastructure. Dependencies return these (optionally wrapped) so
// services translate them into domain errors exactly once.
package sentinel

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrLockHeld    = errors.New("lock held")
	ErrUnavailable = errors.New("unavailable")
)
