package delivery

import (
	"context"
	"errors"
)

// ErrUpstream marks a provider-side failure. The provider's response
// detail is logged for operators but must never reach the client.
var ErrUpstream = errors.New("email provider error")

// TransactionalEmail is a fully rendered message handed to the provider.
// Sender and recipient identities come from service configuration, never
// from the request.
type TransactionalEmail struct {
	Subject      string
	HTMLBody     string
	TextBody     string
	ReplyToEmail string
	ReplyToName  string
}

// DoubleOptInContact is a pending mailing-list registration. The provider
// emails a confirmation link; the contact joins the lists only after
// confirming.
type DoubleOptInContact struct {
	Email     string
	FirstName string
	LastName  string
	Message   string
	ListIDs   []int
}

// MailProvider is the adapter interface for the transactional-email
// backend. Implement this to swap providers or to fake the outbound
// calls in tests.
type MailProvider interface {
	// SendTransactional performs exactly one delivery attempt. No retries.
	SendTransactional(ctx context.Context, email *TransactionalEmail) error
	// CreateDoubleOptInContact registers a contact for double-opt-in
	// confirmation. Exactly one attempt.
	CreateDoubleOptInContact(ctx context.Context, contact *DoubleOptInContact) error
}
