package db

import "fmt"

// NotFoundError is an error used to encode when an ID isn't found
// for GetSingle, Update, and Delete operations
type NotFoundError struct {
	Kind string
	ID   string
}

// NewNotFoundError constructs a new NotFoundError
func NewNotFoundError(kind string, id string) *NotFoundError {
	return &NotFoundError{
		Kind: kind,
		ID:   id,
	}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Kind, e.ID)
}

// UnknownDriverError is returned when the configured store driver
// doesn't name a known backend
type UnknownDriverError struct {
	Driver string
}

// NewUnknownDriverError constructs a new UnknownDriverError
func NewUnknownDriverError(driver string) *UnknownDriverError {
	return &UnknownDriverError{
		Driver: driver,
	}
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown store driver '%s'", e.Driver)
}
