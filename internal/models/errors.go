package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a book id is unknown
var ErrNotFound = errors.New("not found")

// Fields checked by validation, in the order they are checked
const (
	FieldTitle     = "title"
	FieldAuthor    = "author"
	FieldChapters  = "chapters"
	FieldGenre     = "genre"
	FieldDailyGoal = "daily goal"
)

// ValidationError reports the first invalid user input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
