package webutil

const (
	// Header Keys
	HeaderContentType   = "Content-Type"
	HeaderOrigin        = "Origin"
	HeaderCFConnecting  = "CF-Connecting-IP"
	HeaderXForwardedFor = "X-Forwarded-For"

	// Content Types
	ContentTypeJSONUTF8      = "application/json; charset=utf-8"
	ContentTypeTextPlainUTF8 = "text/plain; charset=utf-8"
)
