package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks at the HTTP boundary. The typed
// errors below implement Is against these so callers can branch on kind
// without losing the entity details.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// NotFoundError identifies a missing product or order.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError names the product whose stock cannot cover the
// requested quantity. Available is -1 when the shortfall was detected by a
// failed conditional decrement rather than a read.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Available < 0 {
		return fmt.Sprintf("insufficient stock for product %d: requested=%d", e.ProductID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %d: requested=%d, available=%d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrConflict }

// ForbiddenError records a role attempting a status outside its allow-list.
type ForbiddenError struct {
	Role   string
	Status string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not set order status %s", e.Role, e.Status)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// FieldViolation is one field-level validation failure.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all field violations found by an explicit
// validation pass, reported together rather than first-only.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a compare-and-swap write that lost to a concurrent
// mutation (order status raced, or stock changed since it was read).
type ConflictError struct {
	Entity string
	ID     int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently", e.Entity, e.ID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
