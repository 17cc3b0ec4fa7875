// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes one failed field of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError is returned when a request payload is malformed.
// Nothing has been written when this error is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NotFoundError is returned when a product, color, size, order or user does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InsufficientStockError is returned when a change would drive a cell below zero.
type InsufficientStockError struct {
	ProductID string
	Color     string
	Size      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s/%s of product %s: available %d, requested %d",
		e.Color, e.Size, e.ProductID, e.Available, e.Requested)
}

// InvalidTransitionError is returned for order status changes outside the transition matrix.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}

// InventoryWriteError wraps a persistence failure during a stock mutation.
type InventoryWriteError struct {
	Op  string
	Err error
}

func (e *InventoryWriteError) Error() string {
	return fmt.Sprintf("inventory write failed (%s): %v", e.Op, e.Err)
}

func (e *InventoryWriteError) Unwrap() error { return e.Err }

// ReportingError wraps a failure while building an inventory report.
type ReportingError struct {
	Report string
	Err    error
}

func (e *ReportingError) Error() string {
	return fmt.Sprintf("building %s report: %v", e.Report, e.Err)
}

func (e *ReportingError) Unwrap() error { return e.Err }

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, tag, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Tag: tag, Message: message}}}
}

// NewNotFound builds a NotFoundError.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
