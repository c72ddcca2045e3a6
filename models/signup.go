package models

import (
	"errors"
	"net/url"
	"strings"
)

// Field limits for signup submissions.
const (
	MaxSignupEmailLength   = 254
	MaxSignupNameLength    = 100
	MaxSignupMessageLength = 2000
)

var (
	ErrEmailRequired  = errors.New("email is required")
	ErrNameTooLong    = errors.New("name exceeds allowed length")
	ErrMessageTooLong = errors.New("message exceeds allowed length")
	ErrNoInterest     = errors.New("no recognized interest selected")
)

// interestLists maps form interest values to mailing list IDs.
// Unrecognized values are silently dropped.
var interestLists = map[string][]int{
	"designs": {8},
	"music":   {9},
	"other":   {10},
}

// SignupSubmission is the request-scoped newsletter signup payload.
type SignupSubmission struct {
	Email     string
	FirstName string
	LastName  string
	Message   string
	Interests []string
	// Company is a honeypot field; any non-empty value marks the
	// submission as automated.
	Company string
}

// NewSignupSubmission builds a submission from decoded form values,
// trimming whitespace from the text fields.
func NewSignupSubmission(form url.Values) *SignupSubmission {
	return &SignupSubmission{
		Email:     strings.TrimSpace(form.Get("email")),
		FirstName: strings.TrimSpace(form.Get("firstName")),
		LastName:  strings.TrimSpace(form.Get("lastName")),
		Message:   strings.TrimSpace(form.Get("message")),
		Interests: form["interest"],
		Company:   form.Get("company"),
	}
}

// IsSpam reports whether the honeypot field was filled. The caller is
// expected to answer spam with a silent success so bots get no feedback.
func (s *SignupSubmission) IsSpam() bool {
	return s.Company != ""
}

// Validate checks the submission and returns the first rejection reason.
func (s *SignupSubmission) Validate() error {
	if s.Email == "" {
		return ErrEmailRequired
	}
	if !strings.Contains(s.Email, "@") || len(s.Email) > MaxSignupEmailLength {
		return ErrInvalidEmail
	}
	if len(s.FirstName) > MaxSignupNameLength || len(s.LastName) > MaxSignupNameLength {
		return ErrNameTooLong
	}
	if len(s.Message) > MaxSignupMessageLength {
		return ErrMessageTooLong
	}
	if len(s.ListIDs()) == 0 {
		return ErrNoInterest
	}
	return nil
}

// ListIDs resolves the selected interests to a deduplicated set of
// mailing list IDs, preserving selection order.
func (s *SignupSubmission) ListIDs() []int {
	var ids []int
	seen := make(map[int]bool)
	for _, interest := range s.Interests {
		for _, id := range interestLists[interest] {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
