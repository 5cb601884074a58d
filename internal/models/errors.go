package models

import "errors"

// Errors returned by the relationship, ledger and engagement layers.
// Callers match them with errors.Is; transports map them to status codes.
var (
	ErrInvalidTarget  = errors.New("invalid target")
	ErrAlreadyRelated = errors.New("users are already related")
	ErrNoSuchRequest  = errors.New("no such friend request")
	ErrForbidden      = errors.New("forbidden")
	ErrNoteTooLong    = errors.New("note too long")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("concurrent update conflict")
	ErrSameUser       = errors.New("sender and recipient are the same user")
	ErrAlreadyExists  = errors.New("already exists")
	ErrCounterDrift   = errors.New("engagement counter would become negative")
)
