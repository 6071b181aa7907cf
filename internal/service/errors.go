package service

import "net/http"

// Error is the failure type managers raise. Status doubles as the response
// code and the numeric error code in the body.
type Error struct {
	Status  int
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func NewValidationError(details []string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Validation failed", Details: details}
}

func notFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

func forbidden(message string) *Error {
	return NewError(http.StatusForbidden, message)
}

func badRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

func unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}
