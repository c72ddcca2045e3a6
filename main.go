package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tstfie/forms-api/api"
	"github.com/tstfie/forms-api/delivery"
	"github.com/tstfie/forms-api/ratelimit"
	rh "github.com/tstfie/forms-api/route-handlers"
)

const (
	defaultPort              = "8080"
	defaultFromName          = "tstfie"
	defaultRateLimitMax      = 5
	defaultRateLimitWindow   = 60 * time.Second
	defaultSignupTemplateID  = 1
	defaultSignupRedirectURL = "https://tstfie.ch/signup/success"
	redisPingTimeout         = 5 * time.Second
	shutdownTimeout          = 15 * time.Second
)

type config struct {
	port              string
	brevoAPIKey       string
	contactToEmail    string
	contactFromEmail  string
	fromName          string
	allowedOrigin     string
	redisURL          string
	rateLimitMax      int
	rateLimitWindow   time.Duration
	signupTemplateID  int
	signupRedirectURL string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	store, err := setupRateLimitStore(cfg.redisURL)
	if err != nil {
		log.Fatalf("Rate limit store setup failed: %v", err)
	}
	limiter := ratelimit.New(store, cfg.rateLimitMax, cfg.rateLimitWindow)

	provider := delivery.NewBrevoProvider(delivery.BrevoConfig{
		APIKey:      cfg.brevoAPIKey,
		FromEmail:   cfg.contactFromEmail,
		FromName:    cfg.fromName,
		ToEmail:     cfg.contactToEmail,
		TemplateID:  cfg.signupTemplateID,
		RedirectURL: cfg.signupRedirectURL,
	})

	contactHandler := rh.NewContactHandler(provider, limiter)
	signupHandler := rh.NewSignupHandler(provider)

	router := api.SetupRoutes(contactHandler, signupHandler, cfg.allowedOrigin)

	startServer(cfg.port, router)
}

// loadConfig reads the service configuration from the environment.
// Identity and origin values are required: sending from an undefined
// sender or accepting any origin is worse than refusing to start.
func loadConfig() (config, error) {
	cfg := config{
		port:              envOrDefault("PORT", defaultPort),
		brevoAPIKey:       os.Getenv("BREVO_API_KEY"),
		contactToEmail:    os.Getenv("CONTACT_TO_EMAIL"),
		contactFromEmail:  os.Getenv("CONTACT_FROM_EMAIL"),
		fromName:          envOrDefault("FROM_NAME", defaultFromName),
		allowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),
		redisURL:          os.Getenv("REDIS_URL"),
		rateLimitMax:      defaultRateLimitMax,
		rateLimitWindow:   defaultRateLimitWindow,
		signupTemplateID:  defaultSignupTemplateID,
		signupRedirectURL: envOrDefault("SIGNUP_REDIRECT_URL", defaultSignupRedirectURL),
	}

	for name, value := range map[string]string{
		"BREVO_API_KEY":      cfg.brevoAPIKey,
		"CONTACT_TO_EMAIL":   cfg.contactToEmail,
		"CONTACT_FROM_EMAIL": cfg.contactFromEmail,
		"ALLOWED_ORIGIN":     cfg.allowedOrigin,
	} {
		if value == "" {
			return config{}, fmt.Errorf("required environment variable %s is not set", name)
		}
	}

	if raw := os.Getenv("RATE_LIMIT_MAX"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return config{}, fmt.Errorf("invalid RATE_LIMIT_MAX %q", raw)
		}
		cfg.rateLimitMax = limit
	}

	if raw := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 1 {
			return config{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS %q", raw)
		}
		cfg.rateLimitWindow = time.Duration(seconds) * time.Second
	}

	if raw := os.Getenv("SIGNUP_TEMPLATE_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return config{}, fmt.Errorf("invalid SIGNUP_TEMPLATE_ID %q", raw)
		}
		cfg.signupTemplateID = id
	}

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// setupRateLimitStore selects the rate-limit backend. With REDIS_URL set,
// counters live in Redis and are shared across instances; otherwise a
// process-local store is used, which is fine for single-instance deploys.
func setupRateLimitStore(redisURL string) (ratelimit.Store, error) {
	if redisURL == "" {
		log.Println("REDIS_URL not set, using in-memory rate limit store")
		return ratelimit.NewMemoryStore(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Println("Redis connection successful, using shared rate limit store")
	return ratelimit.NewRedisStore(client), nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal
	log.Println("Shutdown signal received, draining connections...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
