package carrier

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the registry and its stores.
var (
	// ErrDuplicateName indicates a create collided with a live carrier name.
	ErrDuplicateName = errors.New("carrier name already exists")
)

// ValidationError reports malformed input to a registry mutation. It is
// always returned synchronously and is never worth retrying as-is.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation returns true if the error is a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
