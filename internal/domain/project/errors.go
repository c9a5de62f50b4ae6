package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrDuplicateSlug indicates the slug belongs to another live project.
	ErrDuplicateSlug = errors.New("slug already in use")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrMalformedField indicates a stored field could not be decoded.
	// The service logs it and serves the record with the field zeroed.
	ErrMalformedField = errors.New("malformed stored field")
)
