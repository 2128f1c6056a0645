package service

import (
	"errors"
	"fmt"
)

// ErrUnknownUser is returned when the request names a user without a
// stored behavioral profile. The serving path treats this as a hard
// failure rather than scoring against an empty baseline.
var ErrUnknownUser = errors.New("user profile not found")

// ValidationError identifies the first missing required request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
