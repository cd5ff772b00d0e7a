package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s was not found", e.Resource, e.ID)
}

// ValidationError aggregates every violated rule from a single request.
// Callers always see the full list, never just the first failure.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// InvalidOperationError reports an illegal state transition or a stock
// violation detected outside the request validator.
type InvalidOperationError struct {
	msg string
}

func NewInvalidOperation(format string, args ...any) *InvalidOperationError {
	return &InvalidOperationError{msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidOperationError) Error() string {
	return e.msg
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInvalidOperation(err error) bool {
	var target *InvalidOperationError
	return errors.As(err, &target)
}
