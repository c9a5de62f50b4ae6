package kv

import "errors"

// ErrUnavailable is matched by every error that comes from the store
// itself: failed connections and failed commands alike.
var ErrUnavailable = errors.New("store unavailable")

// OpError records a failed store operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "kv " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both ErrUnavailable and the backend cause to errors.Is.
func (e *OpError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Wrap returns nil for a nil err, and an *OpError otherwise. Errors that
// already carry ErrUnavailable are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return &OpError{Op: op, Err: err}
}
