package audiences

import "fmt"

// ValidationError is an error used to encode when an audience
// create or update request is malformed
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError constructs a new ValidationError
func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
