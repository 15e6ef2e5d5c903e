// Package api exposes the HTTP surface: webhook ingress, member profile
// sync, billing portal links, stats and liveness.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sunknudsen/ghost-join/pkg/ghost"
	"github.com/sunknudsen/ghost-join/pkg/mail"
	"github.com/sunknudsen/ghost-join/pkg/member"
	"github.com/sunknudsen/ghost-join/pkg/metrics"
	"github.com/sunknudsen/ghost-join/pkg/stats"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

// Config holds the dependencies and options for the HTTP server.
type Config struct {
	Stripe     *stripeapi.Client
	Ghost      *ghost.Client
	Reconciler *member.Reconciler
	Stats      *stats.Store
	Mailer     *mail.Mailer

	// WebhookSecret is the shared signing secret for inbound events (required).
	WebhookSecret string

	// StatsToken gates the stats endpoint when non-empty.
	StatsToken string

	// MembershipPage is the redirect target after a portal request.
	MembershipPage string

	Logger  zerolog.Logger
	Metrics metrics.Metrics
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.Stripe == nil {
		return fmt.Errorf("api: stripe client is required")
	}
	if c.Ghost == nil {
		return fmt.Errorf("api: ghost client is required")
	}
	if c.Reconciler == nil {
		return fmt.Errorf("api: reconciler is required")
	}
	if c.Stats == nil {
		return fmt.Errorf("api: stats store is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("api: webhook secret is required")
	}
	return nil
}

// Server holds the HTTP handlers.
type Server struct {
	config  Config
	logger  zerolog.Logger
	metrics metrics.Metrics
}

// NewServer creates the HTTP server from config.
func NewServer(config Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	m := config.Metrics
	if m == nil {
		m = &metrics.Noop{}
	}
	return &Server{config: config, logger: config.Logger, metrics: m}, nil
}

// Router builds the chi router for the service.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/", s.handleWebhook)
	r.Post("/stripe-customer-update", s.handleCustomerUpdate)
	r.Get("/portal", s.handlePortal)
	r.Get("/stats", s.handleStats)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
