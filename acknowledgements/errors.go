package acknowledgements

import (
	"fmt"

	"github.com/jd-116/announcement-hub/types"
)

// DuplicateError is an error used to encode when a user has already
// acknowledged an announcement. It carries the existing record
type DuplicateError struct {
	Existing types.Acknowledgement
}

// NewDuplicateError constructs a new DuplicateError
func NewDuplicateError(existing types.Acknowledgement) *DuplicateError {
	return &DuplicateError{
		Existing: existing,
	}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("user '%s' has already acknowledged announcement '%s'",
		e.Existing.UserID, e.Existing.AnnouncementID)
}

// MissingFieldError is an error used to encode when a required
// field of an acknowledge request is empty
type MissingFieldError struct {
	Field string
}

// NewMissingFieldError constructs a new MissingFieldError
func NewMissingFieldError(field string) *MissingFieldError {
	return &MissingFieldError{
		Field: field,
	}
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}
