// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrSubscriptionClosed   = errors.New("subscription closed")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrNotFound             = errors.New("not found")
	ErrReadOnlyStore        = errors.New("store is read-only")
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
	ErrInputValidation      = errors.New("input validation failed")
)

// SubscriptionError is reported by a live listener that failed to start or
// failed asynchronously.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription error [%s]: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

// NewSubscriptionError creates a new SubscriptionError.
func NewSubscriptionError(collection string, err error) *SubscriptionError {
	return &SubscriptionError{
		Collection: collection,
		Err:        err,
	}
}

// MappingError is raised while projecting a raw document to an insight record.
type MappingError struct {
	DocID string
	Field string
	Err   error
}

func (e *MappingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mapping error [%s] field %s: %v", e.DocID, e.Field, e.Err)
	}
	return fmt.Sprintf("mapping error [%s]: %v", e.DocID, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// NewMappingError creates a new MappingError.
func NewMappingError(docID, field string, err error) *MappingError {
	return &MappingError{
		DocID: docID,
		Field: field,
		Err:   err,
	}
}

// ClipboardError wraps a failed clipboard write.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("clipboard error: %v", e.Err)
}

func (e *ClipboardError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
