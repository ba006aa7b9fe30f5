// Package apperrors defines the error taxonomy shared by the repositories,
// services and handlers: ErrNotFound maps to 404, ValidationError to 400,
// everything else is treated as an internal store failure (500).
package apperrors

import "errors"

// ErrNotFound signals that an id did not resolve to a record.
var ErrNotFound = errors.New("not found")

// ValidationError describes malformed or out-of-range input. Its message is
// safe to return to the caller verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation builds a ValidationError with the given caller-facing message.
func NewValidation(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// AsValidation unwraps err into a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
