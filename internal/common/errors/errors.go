// Package errors provides the standardized error taxonomy for the
// spot-monitor workflow: local validation failures, transport failures
// reaching the processing service, and failure responses from it.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ValidationError is a local, pre-network failure: a required input is
// missing or malformed. No request is issued when one is raised.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for a named input field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransportError is a network-level failure reaching the processing
// service. The underlying error is preserved for logging and unwrapping.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network failure for the named operation.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// ServiceError means the processing service was reachable but responded
// with a non-success status. Body carries the raw response text, which is
// surfaced to the user verbatim.
type ServiceError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("%s: service returned status %d", e.Op, e.Status)
}

// NewServiceError creates a service error carrying the response body text.
func NewServiceError(op string, status int, body string) *ServiceError {
	return &ServiceError{Op: op, Status: status, Body: body}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return stderrors.As(err, &te)
}

// IsService reports whether err is (or wraps) a ServiceError.
func IsService(err error) bool {
	var se *ServiceError
	return stderrors.As(err, &se)
}

// Code returns a short classification label for metrics and logs.
func Code(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsValidation(err):
		return "validation"
	case IsService(err):
		return "service"
	case IsTransport(err):
		return "transport"
	default:
		return "unknown"
	}
}
