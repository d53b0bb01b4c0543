package announcements

import (
	"fmt"
	"strings"

	"github.com/jd-116/announcement-hub/types"
)

// ValidationError is an error used to encode when an announcement
// fails one of the creation rules
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

// InvalidReferenceError is an error used to encode when an announcement
// points at an audience that doesn't exist
type InvalidReferenceError struct {
	AudienceID string
}

// NewInvalidReferenceError constructs a new InvalidReferenceError
func NewInvalidReferenceError(audienceID string) *InvalidReferenceError {
	return &InvalidReferenceError{
		AudienceID: audienceID,
	}
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("audience with ID '%s' does not exist", e.AudienceID)
}

// InvalidStateError is an error used to encode when an action
// isn't allowed from the announcement's current status
type InvalidStateError struct {
	ID     string
	Status types.Status
	Action Action
}

// NewInvalidStateError constructs a new InvalidStateError
func NewInvalidStateError(id string, status types.Status, action Action) *InvalidStateError {
	return &InvalidStateError{
		ID:     id,
		Status: status,
		Action: action,
	}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s announcement '%s' with status %s", e.Action, e.ID, e.Status)
}

// ConfigurationError is an error used to encode when an announcement's
// audience has no channels to send to
type ConfigurationError struct {
	AudienceID string
}

// NewConfigurationError constructs a new ConfigurationError
func NewConfigurationError(audienceID string) *ConfigurationError {
	return &ConfigurationError{
		AudienceID: audienceID,
	}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("audience '%s' has no channels configured", e.AudienceID)
}

// DispatchError is an error used to encode when no channel accepted an
// announcement. Errors holds one entry per failed channel, in audience order
type DispatchError struct {
	ID     string
	Errors []string
}

// NewDispatchError constructs a new DispatchError
func NewDispatchError(id string, errors []string) *DispatchError {
	return &DispatchError{
		ID:     id,
		Errors: errors,
	}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to send announcement '%s' to any channel: %s",
		e.ID, strings.Join(e.Errors, "; "))
}
