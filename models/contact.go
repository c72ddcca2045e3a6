package models

import (
	"errors"
	"regexp"
)

// Field limits for contact submissions.
const (
	MaxContactNameLength    = 80
	MaxContactEmailLength   = 120
	MaxContactMessageLength = 2000
)

// Validation rejection reasons. Handlers map these to user-facing responses.
var (
	ErrSpamDetected  = errors.New("honeypot field is not empty")
	ErrMissingFields = errors.New("missing required fields")
	ErrInputTooLong  = errors.New("input exceeds allowed length")
	ErrInvalidEmail  = errors.New("invalid email address")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactSubmission is the request-scoped contact form payload.
// It lives for the duration of a single request and is never persisted.
type ContactSubmission struct {
	Name     string `json:"name"`
	LastName string `json:"lastName,omitempty"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	// Website is a honeypot field. Real users never fill it; any
	// non-empty value marks the submission as automated.
	Website string `json:"website,omitempty"`
}

// Validate checks the submission and returns the first rejection reason,
// in gate order: honeypot, required fields, length limits, email format.
func (s *ContactSubmission) Validate() error {
	if s.Website != "" {
		return ErrSpamDetected
	}
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return ErrMissingFields
	}
	if len(s.Name) > MaxContactNameLength ||
		len(s.Email) > MaxContactEmailLength ||
		len(s.Message) > MaxContactMessageLength {
		return ErrInputTooLong
	}
	if !emailPattern.MatchString(s.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// SenderName returns the display name used in the outbound email:
// "Name" or "Name LastName" when a last name was provided.
func (s *ContactSubmission) SenderName() string {
	if s.LastName != "" {
		return s.Name + " " + s.LastName
	}
	return s.Name
}
