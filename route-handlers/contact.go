package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/tstfie/forms-api/delivery"
	"github.com/tstfie/forms-api/models"
	"github.com/tstfie/forms-api/ratelimit"
	"github.com/tstfie/forms-api/sanitize"
	"github.com/tstfie/forms-api/webutil"
)

// ContactHandler relays validated contact messages to the mail provider.
type ContactHandler struct {
	Provider delivery.MailProvider
	Limiter  *ratelimit.Limiter
}

func NewContactHandler(provider delivery.MailProvider, limiter *ratelimit.Limiter) *ContactHandler {
	return &ContactHandler{Provider: provider, Limiter: limiter}
}

// HandleSubmit runs the submission through its gates in order: parse,
// honeypot, required fields, length limits, email format, rate limits
// (connection identity, then email identity), then exactly one relay
// attempt. Cheap rejections come before the rate-limit table mutation
// and the outbound call.
func (h *ContactHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) error {
	var submission models.ContactSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return webutil.ErrPayloadTooLarge("")
		}
		return webutil.ErrBadRequestWrap("Invalid request payload", err)
	}
	defer r.Body.Close()

	if err := submission.Validate(); err != nil {
		return contactRejection(err)
	}

	ip := clientIP(r)
	for _, key := range []string{"ip:" + ip, "email:" + submission.Email} {
		allowed, err := h.Limiter.Allow(r.Context(), key)
		if err != nil {
			// The limiter fails open. Log and keep going.
			slog.Warn("Rate limit store unavailable", "key", key, "error", err)
		}
		if !allowed {
			return webutil.ErrTooManyRequests("")
		}
	}

	// Escaped values go into the HTML body only. The plain-text body keeps
	// the raw values; it is never rendered as markup.
	senderName := sanitize.EscapeHTML(submission.SenderName())
	safeEmail := sanitize.EscapeHTML(submission.Email)
	safeMessage := sanitize.EscapeHTML(submission.Message)

	email := &delivery.TransactionalEmail{
		Subject: fmt.Sprintf("Message from %s", senderName),
		HTMLBody: fmt.Sprintf(
			"<p><strong>From:</strong> %s<br/><strong>At:</strong> %s</p><p>%s</p>",
			senderName, safeEmail, sanitize.NewlineToBR(safeMessage),
		),
		TextBody: strings.TrimSpace(fmt.Sprintf(
			"Name: %s\nReply to: %s\n\n%s",
			submission.SenderName(), submission.Email, submission.Message,
		)),
		ReplyToEmail: submission.Email,
		ReplyToName:  senderName,
	}

	if err := h.Provider.SendTransactional(r.Context(), email); err != nil {
		if errors.Is(err, delivery.ErrUpstream) {
			return webutil.ErrBadGatewayWrap("", err)
		}
		return fmt.Errorf("contact relay failed: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

// contactRejection maps validation reasons to the contact endpoint's
// user-facing messages. The honeypot rejection is indistinguishable in
// shape from the other 400s so bots learn nothing from it.
func contactRejection(err error) error {
	switch {
	case errors.Is(err, models.ErrSpamDetected):
		return webutil.ErrBadRequest("Spam detected")
	case errors.Is(err, models.ErrMissingFields):
		return webutil.ErrBadRequest("Missing required fields")
	case errors.Is(err, models.ErrInputTooLong):
		return webutil.ErrBadRequest("Input exceeds allowed length")
	case errors.Is(err, models.ErrInvalidEmail):
		return webutil.ErrBadRequest("Invalid email address")
	}
	return webutil.ErrBadRequestWrap("", err)
}

// clientIP resolves the caller's connection identity for rate limiting:
// CF-Connecting-IP, then the first X-Forwarded-For hop, then the socket
// address, falling back to the literal "unknown".
func clientIP(r *http.Request) string {
	if ip := r.Header.Get(webutil.HeaderCFConnecting); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get(webutil.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
