package webutil

import (
	"errors"
	"log/slog"
	"net/http"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// It executes the AppHandler and handles any returned error by logging appropriately
// and sending a standardized JSON error response. Handlers that return an error
// must not have written a response themselves.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			// The handler is assumed to have written its own successful response.
			return
		}

		var httpErr *HTTPError // Use pointer type for errors.As with our HTTPError constructors
		var publicMessage string
		var statusCode int

		if errors.As(err, &httpErr) {
			// This is an HTTPError we explicitly created (e.g., ErrBadRequest, ErrForbidden)
			statusCode = httpErr.Code
			publicMessage = httpErr.Message
			logLevel := slog.LevelWarn // Treat client errors as warnings server-side
			if statusCode >= 500 {
				logLevel = slog.LevelError
			}
			// Log the underlying cause if present and different from the public message
			cause := errors.Unwrap(httpErr)
			if cause != nil && cause.Error() != publicMessage {
				slog.Log(r.Context(), logLevel, "Client error response",
					"code", httpErr.Code,
					"msg", httpErr.Message,
					"cause", cause,
					"path", r.URL.Path,
					"method", r.Method,
				)
			} else {
				slog.Log(r.Context(), logLevel, "Client error response",
					"code", httpErr.Code,
					"msg", httpErr.Message,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
		} else {
			// Any other error is treated as an internal server error
			statusCode = http.StatusInternalServerError
			publicMessage = msgInternalServer
			slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
		}

		// Send the standardized JSON error response
		RespondWithError(w, statusCode, publicMessage)
	}
}
