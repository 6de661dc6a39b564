package service

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed discriminator for domain failures.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION_ERROR"
	KindBusinessLogic ErrorKind = "BUSINESS_LOGIC_ERROR"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindIntegrity     ErrorKind = "INTEGRITY_ERROR"
	KindInternal      ErrorKind = "INTERNAL_ERROR"
)

// DomainError is the only error type that crosses the service boundary for
// domain-rule failures. Field is set for field-level validation errors.
type DomainError struct {
	Kind    ErrorKind `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (campo %s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrValidation builds a field-level validation error.
func ErrValidation(field, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...), Field: field}
}

// ErrBusiness builds a domain-rule violation error.
func ErrBusiness(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindBusinessLogic, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound builds a missing-entity error.
func ErrNotFound(entity string, id int64) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("%s no encontrado: %d", entity, id)}
}

// ErrIntegrity builds a storage-constraint violation error.
func ErrIntegrity(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...)}
}

// ErrInternal wraps an unexpected failure into the taxonomy.
func ErrInternal(op string, err error) *DomainError {
	return &DomainError{Kind: KindInternal, Message: fmt.Sprintf("error interno en %s: %v", op, err)}
}

// KindOf extracts the error kind, defaulting to internal for plain errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}
