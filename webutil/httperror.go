package webutil

import (
	"errors"
	"net/http"
)

const (
	msgBadRequest      = "Bad Request"
	msgForbidden       = "Forbidden"
	msgPayloadTooLarge = "Payload too large"
	msgTooManyRequests = "Too many requests"
	msgBadGateway      = "Email service error"
	msgInternalServer  = "Internal server error"
)

// Represents an error with an associated HTTP status code
// and a user-facing message.
type HTTPError struct {
	cause   error  // The underlying error, can be nil
	Code    int    // HTTP status code
	Message string // User-facing error message
}

// Implements the error interface.
// It returns the Message, which is intended for the HTTP response.
func (he HTTPError) Error() string {
	return he.Message
}

// Provides compatibility for errors.Is and errors.As.
func (he HTTPError) Unwrap() error {
	return he.cause
}

// Returns the defaultVal if the initial message is empty.
func defaultMessageIfEmpty(initialMsg, defaultVal string) string {
	if initialMsg == "" {
		return defaultVal
	}
	return initialMsg
}

// Creates a new HTTPError with a code and message.
// The message provided will be used directly. If a default message is desired
// for an empty input message, use the specific ErrXxx constructors.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		cause:   errors.New(message), // Base error is the message itself
		Code:    code,
		Message: message,
	}
}

// Creates a new HTTPError that wraps an existing error (cause).
// The message is a user-facing message for this specific HTTP error context.
func NewHTTPErrorWrap(code int, message string, cause error) *HTTPError {
	return &HTTPError{
		cause:   cause,
		Code:    code,
		Message: message,
	}
}

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, defaultMessageIfEmpty(message, msgBadRequest))
}

func ErrBadRequestWrap(message string, cause error) *HTTPError {
	return NewHTTPErrorWrap(http.StatusBadRequest, defaultMessageIfEmpty(message, msgBadRequest), cause)
}

func ErrForbidden(message string) *HTTPError {
	return NewHTTPError(http.StatusForbidden, defaultMessageIfEmpty(message, msgForbidden))
}

func ErrPayloadTooLarge(message string) *HTTPError {
	return NewHTTPError(http.StatusRequestEntityTooLarge, defaultMessageIfEmpty(message, msgPayloadTooLarge))
}

func ErrTooManyRequests(message string) *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, defaultMessageIfEmpty(message, msgTooManyRequests))
}

func ErrBadGatewayWrap(message string, cause error) *HTTPError {
	return NewHTTPErrorWrap(http.StatusBadGateway, defaultMessageIfEmpty(message, msgBadGateway), cause)
}

func ErrInternalServer(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, defaultMessageIfEmpty(message, msgInternalServer))
}
