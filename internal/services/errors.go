// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Every failure in this package is a
// caller-correctable business-rule rejection; infrastructure errors are
// wrapped and bubble up separately.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeStructuralViolation = "STRUCTURAL_VIOLATION"
	CodePoolExhausted       = "POOL_EXHAUSTED"
	CodePoolMismatch        = "POOL_MISMATCH"
	CodeDateAfterExpiration = "DATE_AFTER_EXPIRATION"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyAssigned     = "ALREADY_ASSIGNED"
	CodeAlreadyDeleted      = "ALREADY_DELETED"
	CodeNotDeleted          = "NOT_DELETED"
	CodeTooManyAssets       = "TOO_MANY_ASSETS"
	CodeRestoreConflict     = "RESTORE_CONFLICT"
	CodeInvalidTransition   = "INVALID_TRANSITION"
)

// DomainError carries a stable code plus enough detail for the caller to
// correct the request.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func NewFieldError(code, message, field string) *DomainError {
	return &DomainError{Code: code, Message: message, Field: field}
}

// AsDomainError unwraps err to a *DomainError if one is in the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func notFound(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}
