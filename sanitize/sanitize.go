package sanitize

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces the five HTML-significant characters with their
// entities so user-supplied text can be interpolated into an HTML email
// body. It is not idempotent: applying it to already-escaped text
// double-escapes the ampersands. Never apply it to the plain-text body.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var newlineReplacer = strings.NewReplacer("\r\n", "<br>", "\n", "<br>")

// NewlineToBR converts line breaks to <br> tags for HTML rendering.
func NewlineToBR(s string) string {
	return newlineReplacer.Replace(s)
}
