package routehandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tstfie/forms-api/delivery"
	"github.com/tstfie/forms-api/models"
	"github.com/tstfie/forms-api/webutil"
)

// SignupHandler forwards newsletter signups to the provider's
// double-opt-in flow. The contact only joins the selected lists after
// confirming via the emailed link.
type SignupHandler struct {
	Provider delivery.MailProvider
}

func NewSignupHandler(provider delivery.MailProvider) *SignupHandler {
	return &SignupHandler{Provider: provider}
}

func (h *SignupHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return webutil.ErrPayloadTooLarge("")
		}
		return webutil.ErrBadRequestWrap("invalid_form", err)
	}

	submission := models.NewSignupSubmission(r.PostForm)

	// Honeypot triggers a silent success so bots get no feedback,
	// and the provider is never contacted.
	if submission.IsSpam() {
		slog.Warn("Signup honeypot triggered", "ip", clientIP(r))
		webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
		return nil
	}

	if err := submission.Validate(); err != nil {
		return signupRejection(err)
	}

	contact := &delivery.DoubleOptInContact{
		Email:     submission.Email,
		FirstName: submission.FirstName,
		LastName:  submission.LastName,
		Message:   submission.Message,
		ListIDs:   submission.ListIDs(),
	}

	if err := h.Provider.CreateDoubleOptInContact(r.Context(), contact); err != nil {
		if errors.Is(err, delivery.ErrUpstream) {
			return webutil.ErrBadGatewayWrap("email_service_error", err)
		}
		return fmt.Errorf("signup relay failed: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

// signupRejection maps validation reasons to the signup endpoint's
// code-style error responses.
func signupRejection(err error) error {
	switch {
	case errors.Is(err, models.ErrEmailRequired):
		return webutil.ErrBadRequest("email_required")
	case errors.Is(err, models.ErrInvalidEmail):
		return webutil.ErrBadRequest("invalid_email")
	case errors.Is(err, models.ErrNameTooLong):
		return webutil.ErrBadRequest("name_too_long")
	case errors.Is(err, models.ErrMessageTooLong):
		return webutil.ErrBadRequest("message_too_long")
	case errors.Is(err, models.ErrNoInterest):
		return webutil.ErrBadRequest("no_interest")
	}
	return webutil.ErrBadRequestWrap("", err)
}
