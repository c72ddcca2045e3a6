package routehandlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstfie/forms-api/api"
	"github.com/tstfie/forms-api/delivery"
	"github.com/tstfie/forms-api/ratelimit"
	rh "github.com/tstfie/forms-api/route-handlers"
)

const allowedOrigin = "https://tstfie.ch"

// fakeProvider records outbound calls instead of hitting the Brevo API.
type fakeProvider struct {
	sendErr  error
	optInErr error
	sent     []*delivery.TransactionalEmail
	contacts []*delivery.DoubleOptInContact
}

func (f *fakeProvider) SendTransactional(_ context.Context, email *delivery.TransactionalEmail) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeProvider) CreateDoubleOptInContact(_ context.Context, contact *delivery.DoubleOptInContact) error {
	if f.optInErr != nil {
		return f.optInErr
	}
	f.contacts = append(f.contacts, contact)
	return nil
}

// newTestRouter wires the full middleware and handler stack the way main
// does, so requests pass the same gates they would in production.
func newTestRouter(provider *fakeProvider) http.Handler {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), 5, 60*time.Second)
	contactHandler := rh.NewContactHandler(provider, limiter)
	signupHandler := rh.NewSignupHandler(provider)
	return api.SetupRoutes(contactHandler, signupHandler, allowedOrigin)
}

func postContact(router http.Handler, origin, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestContactSuccess(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	rec := postContact(router, allowedOrigin, `{"name":"A","email":"a@b.com","message":"hi"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	require.Len(t, provider.sent, 1)
	email := provider.sent[0]
	assert.Equal(t, "a@b.com", email.ReplyToEmail)
	assert.Equal(t, "Message from A", email.Subject)
	assert.Contains(t, email.TextBody, "Reply to: a@b.com")
}

func TestContactForbiddenOrigin(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	rec := postContact(router, "https://evil.example", `{"name":"A","email":"a@b.com","message":"hi"}`, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	assert.Empty(t, provider.sent, "no outbound call may happen for a rejected origin")
}

func TestContactMissingOrigin(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	rec := postContact(router, "", `{"name":"A","email":"a@b.com","message":"hi"}`, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, provider.sent)
}

func TestContactHoneypotShortCircuits(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	rec := postContact(router, allowedOrigin,
		`{"name":"A","email":"a@b.com","message":"hi","website":"http://spam.example"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Spam detected"}`, rec.Body.String())
	assert.Empty(t, provider.sent, "honeypot must reject before any network call")
}

func TestContactValidationRejections(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing message", `{"name":"A","email":"a@b.com"}`, "Missing required fields"},
		{"missing name", `{"email":"a@b.com","message":"hi"}`, "Missing required fields"},
		{"empty email", `{"name":"A","email":"","message":"hi"}`, "Missing required fields"},
		{"invalid email", `{"name":"A","email":"not-an-email","message":"hi"}`, "Invalid email address"},
		{"name too long", `{"name":"` + strings.Repeat("a", 81) + `","email":"a@b.com","message":"hi"}`, "Input exceeds allowed length"},
		{"malformed json", `{"name":`, "Invalid request payload"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			provider := &fakeProvider{}
			router := newTestRouter(provider)

			rec := postContact(router, allowedOrigin, c.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+c.wantMsg+`"}`, rec.Body.String())
			assert.Empty(t, provider.sent)
		})
	}
}

func TestContactRateLimitByIP(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	// Vary the email so only the connection identity is shared.
	for i := 0; i < 5; i++ {
		body := `{"name":"A","email":"a` + strings.Repeat("x", i) + `@b.com","message":"hi"}`
		rec := postContact(router, allowedOrigin, body, map[string]string{"CF-Connecting-IP": "1.2.3.4"})
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be admitted", i+1)
	}

	rec := postContact(router, allowedOrigin,
		`{"name":"A","email":"other@b.com","message":"hi"}`,
		map[string]string{"CF-Connecting-IP": "1.2.3.4"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	assert.Len(t, provider.sent, 5, "the over-quota request must not reach the relay")
}

func TestContactRateLimitByEmail(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	// Same email from rotating addresses still exhausts the email quota.
	for i := 0; i < 5; i++ {
		rec := postContact(router, allowedOrigin,
			`{"name":"A","email":"a@b.com","message":"hi"}`,
			map[string]string{"CF-Connecting-IP": "10.0.0." + string(rune('1'+i))})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postContact(router, allowedOrigin,
		`{"name":"A","email":"a@b.com","message":"hi"}`,
		map[string]string{"CF-Connecting-IP": "172.16.0.9"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestContactUpstreamFailure(t *testing.T) {
	provider := &fakeProvider{sendErr: delivery.ErrUpstream}
	router := newTestRouter(provider)

	rec := postContact(router, allowedOrigin, `{"name":"A","email":"a@b.com","message":"hi"}`, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Email service error"}`, rec.Body.String())
}

func TestContactUnexpectedProviderError(t *testing.T) {
	provider := &fakeProvider{sendErr: context.DeadlineExceeded}
	router := newTestRouter(provider)

	rec := postContact(router, allowedOrigin, `{"name":"A","email":"a@b.com","message":"hi"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestContactPayloadTooLarge(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	body := `{"name":"A","email":"a@b.com","message":"` + strings.Repeat("a", 11_000) + `"}`
	rec := postContact(router, allowedOrigin, body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Payload too large"}`, rec.Body.String())
	assert.Empty(t, provider.sent)
}

func TestContactSanitizesHTMLBody(t *testing.T) {
	provider := &fakeProvider{}
	router := newTestRouter(provider)

	rec := postContact(router, allowedOrigin,
		`{"name":"<script>","email":"a@b.com","message":"line1\nline2 & <b>"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, provider.sent, 1)

	email := provider.sent[0]
	assert.Equal(t, "Message from &lt;script&gt;", email.Subject)
	assert.NotContains(t, email.HTMLBody, "<script>")
	assert.Contains(t, email.HTMLBody, "&lt;script&gt;")
	assert.Contains(t, email.HTMLBody, "line1<br>line2 &amp; &lt;b&gt;")
	// The plain-text body keeps the raw message.
	assert.Contains(t, email.TextBody, "line1\nline2 & <b>")
	assert.Contains(t, email.TextBody, "Name: <script>")
}
