package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBrevoBaseURL   = "https://api.brevo.com"
	smtpEmailPath         = "/v3/smtp/email"
	doubleOptInPath       = "/v3/contacts/doubleOptinConfirmation"
	requestTimeout     = 15 * time.Second
	maxLoggedBodyBytes = 4096
	doiStatusPending   = "PENDING"
)

// BrevoConfig holds the fixed identities and endpoints for the Brevo
// transactional-email API.
type BrevoConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	ToEmail     string
	TemplateID  int
	RedirectURL string
	// BaseURL overrides the public API endpoint. Used by tests.
	BaseURL string
}

// BrevoProvider relays messages through the Brevo HTTP API.
type BrevoProvider struct {
	cfg    BrevoConfig
	client *http.Client
}

func NewBrevoProvider(cfg BrevoConfig) *BrevoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBrevoBaseURL
	}
	return &BrevoProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (p *BrevoProvider) SendTransactional(ctx context.Context, email *TransactionalEmail) error {
	payload := bvEmailPayload{
		Sender:      bvAddress{Email: p.cfg.FromEmail, Name: p.cfg.FromName},
		To:          []bvAddress{{Email: p.cfg.ToEmail, Name: p.cfg.FromName}},
		Subject:     email.Subject,
		HTMLContent: email.HTMLBody,
		TextContent: email.TextBody,
		ReplyTo:     bvAddress{Email: email.ReplyToEmail, Name: email.ReplyToName},
	}
	return p.post(ctx, smtpEmailPath, payload)
}

func (p *BrevoProvider) CreateDoubleOptInContact(ctx context.Context, contact *DoubleOptInContact) error {
	attributes := make(map[string]string, 4)
	attributes["DOI_STATUS"] = doiStatusPending
	if contact.FirstName != "" {
		attributes["FIRSTNAME"] = contact.FirstName
	}
	if contact.LastName != "" {
		attributes["LASTNAME"] = contact.LastName
	}
	if contact.Message != "" {
		attributes["MESSAGE"] = contact.Message
	}

	payload := bvDoubleOptInPayload{
		Email:          contact.Email,
		Attributes:     attributes,
		IncludeListIDs: contact.ListIDs,
		TemplateID:     p.cfg.TemplateID,
		RedirectionURL: p.cfg.RedirectURL,
	}
	return p.post(ctx, doubleOptInPath, payload)
}

// post performs a single attempt against the Brevo API. A non-success
// response is logged with its body for operator diagnosis and surfaced
// as a generic ErrUpstream.
func (p *BrevoProvider) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Brevo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Brevo request: %w", err)
	}
	req.Header.Set("api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	deliveryID := uuid.NewString()

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("Brevo request %s failed: %w", deliveryID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBodyBytes))
		slog.Error("Brevo rejected request",
			"delivery_id", deliveryID,
			"path", path,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return fmt.Errorf("Brevo returned status %d for delivery %s: %w", resp.StatusCode, deliveryID, ErrUpstream)
	}

	slog.Info("Brevo accepted request", "delivery_id", deliveryID, "path", path, "status", resp.StatusCode)
	return nil
}

// Brevo v3 API payload types.
type bvEmailPayload struct {
	Sender      bvAddress   `json:"sender"`
	To          []bvAddress `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
	TextContent string      `json:"textContent"`
	ReplyTo     bvAddress   `json:"replyTo"`
}

type bvAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type bvDoubleOptInPayload struct {
	Email          string            `json:"email"`
	Attributes     map[string]string `json:"attributes"`
	IncludeListIDs []int             `json:"includeListIds"`
	TemplateID     int               `json:"templateId"`
	RedirectionURL string            `json:"redirectionUrl"`
}
