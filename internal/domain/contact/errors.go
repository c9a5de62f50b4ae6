package contact

import "errors"

var (
	// ErrContactNotFound indicates the submission doesn't exist.
	ErrContactNotFound = errors.New("contact not found")
	// ErrInvalidInput indicates a submission failed validation.
	ErrInvalidInput = errors.New("invalid contact submission")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("invalid contact status")
)
