package recurrence

import "errors"

var (
	// ErrNotFound covers both a missing instance and a family whose
	// original record is gone.
	ErrNotFound = errors.New("checklist not found")

	// ErrAlreadyCompleted is returned when completing an instance that is
	// already completed; it is the guard against double generation.
	ErrAlreadyCompleted = errors.New("checklist is already completed")

	// ErrNotCompleted is returned when uncompleting an instance that was
	// never completed.
	ErrNotCompleted = errors.New("checklist is not completed")

	// ErrNotOriginal is returned when a family edit targets a sibling
	// instead of the original.
	ErrNotOriginal = errors.New("checklist is not the family original")
)
