// Package store persists application documents.
//
// Every backend stores the whole application as one document guarded by an
// optimistic version counter: Save succeeds only when the caller's Version
// matches the stored one, and bumps it.
package store

import "dsakyc/pkg/platform/sentinel"

var (
	// ErrNotFound is returned when a requested application does not exist.
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned on a duplicate create or a stale version.
	ErrConflict = sentinel.ErrConflict
)
