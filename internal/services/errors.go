package services

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/validation"
)

var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrInvalidIdentifier = errors.New("invalid user ID")
	ErrNotFound          = errors.New("user not found")
	ErrEmailConflict     = errors.New("email already exists")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// ValidationError carries the field violations of a rejected payload.
// errors.Is(err, ErrValidationFailed) reports true for it.
type ValidationError struct {
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
