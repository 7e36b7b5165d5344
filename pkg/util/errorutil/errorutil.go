package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes shared by the client layer and the BFF.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeUpstreamFailed      = "UPSTREAM_FAILED"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"

	CodeAssigneeRequired     = "ASSIGNEE_REQUIRED"
	CodeClosingNotesRequired = "CLOSING_NOTES_REQUIRED"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodePartialFailure       = "PARTIAL_FAILURE"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUpstreamError maps a non-success backend response onto a DomainError.
// The backend's own message is kept when it sends one.
func NewUpstreamError(method, path string, status int, message string) error {
	message = strings.TrimSpace(message)
	details := map[string]any{"method": method, "path": path, "upstream_status": status}
	code, httpStatus := CodeUpstreamFailed, http.StatusBadGateway
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code, httpStatus = CodeValidation, http.StatusBadRequest
	case http.StatusUnauthorized:
		code, httpStatus = CodeUnauthorized, http.StatusUnauthorized
	case http.StatusForbidden:
		code, httpStatus = CodeForbidden, http.StatusForbidden
	case http.StatusNotFound:
		code, httpStatus = CodeNotFound, http.StatusNotFound
	case http.StatusConflict:
		code, httpStatus = CodeConflict, http.StatusConflict
	}
	if message == "" {
		message = fmt.Sprintf("%s %s failed with status %d", method, path, status)
	}
	return &DomainError{Code: code, Message: message, HTTPStatus: httpStatus, Details: details}
}

// NewUpstreamUnavailable wraps a transport failure talking to the backend.
func NewUpstreamUnavailable(method, path string, err error) error {
	return &DomainError{
		Code:       CodeUpstreamUnavailable,
		Message:    fmt.Sprintf("%s %s: backend unreachable", method, path),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"method": method, "path": path},
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
