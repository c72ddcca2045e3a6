package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/tstfie/forms-api/route-handlers"
	"github.com/tstfie/forms-api/webutil"
)

const (
	apiBasePath     = "/api"
	contactPath     = "/contact"
	signupPath      = "/signup"
	healthCheckPath = "/healthz"
)

const requestTimeout = 30 * time.Second

func SetupRoutes(
	contactHandler *rh.ContactHandler,
	signupHandler *rh.SignupHandler,
	allowedOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                  // Log every request
	r.Use(middleware.Recoverer)               // Recover from panics
	r.Use(middleware.Timeout(requestTimeout)) // Set a timeout context for requests

	r.Route(apiBasePath, func(r chi.Router) {
		// Cheap gates run before any handler work: origin first, then size.
		r.Use(AllowOrigin(allowedOrigin))
		r.Use(LimitPayload)

		r.Post(contactPath, webutil.MakeHandler(contactHandler.HandleSubmit))
		r.Post(signupPath, webutil.MakeHandler(signupHandler.HandleSubmit))
	})

	// Health check endpoint
	r.Get(healthCheckPath, handleHealthCheck)

	return r
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
