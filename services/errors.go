package services

import (
	"errors"
	"net/http"
)

type ErrorCode int

const (
	ErrorInvalid ErrorCode = iota + 1
	ErrorUnauthorized
	ErrorForbidden
	ErrorNotFound
	ErrorTooManyRequests
	ErrorUnavailable
)

// ServiceError is returned by every service operation that fails for a reason
// the client can act on. Anything else is an internal failure.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// Status maps the error code to the HTTP status surfaced to clients.
func (e *ServiceError) Status() int {
	switch e.Code {
	case ErrorInvalid:
		return http.StatusBadRequest
	case ErrorUnauthorized:
		return http.StatusUnauthorized
	case ErrorForbidden:
		return http.StatusForbidden
	case ErrorNotFound:
		return http.StatusNotFound
	case ErrorTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(msg string) error     { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewAuthenticationError(msg string) error { return &ServiceError{Code: ErrorUnauthorized, Message: msg} }
func NewAuthorizationError(msg string) error  { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error       { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

func NewUnavailableError(msg string) error {
	return &ServiceError{Code: ErrorUnavailable, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err is a ServiceError carrying code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
