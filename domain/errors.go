package domain

import "errors"

// ErrNotFound indicates that the addressed client, task or briefing does not
// exist in the store.
var ErrNotFound = errors.New("not found")

// ErrBusinessNameRequired is returned when a client is created without a
// business name.
var ErrBusinessNameRequired = errors.New("business name is required")

// ErrBriefingExists indicates that an insert was attempted for a client that
// already has a briefing document.
var ErrBriefingExists = errors.New("briefing already exists for client")

var (
	ErrUnknownChecklistType = errors.New("unknown checklist type")
	ErrUnknownField         = errors.New("unknown briefing field")
)
