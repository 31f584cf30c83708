package core

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a record or blob does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a collection mutation would leave two
	// records sharing the same identifying key (case-insensitive).
	ErrDuplicateKey = errors.New("a record with this key already exists")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// IsValidationError reports whether err (or its cause) is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}
