// Package api exposes the HTTP surface: slot queries, checkout, the Stripe
// webhook, and debug helpers. Handlers validate before any I/O and map the
// error taxonomy onto status codes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mannabook/internal/config"
	"mannabook/internal/models"
	"mannabook/internal/payments"
	"mannabook/internal/pricing"
	"mannabook/internal/reconcile"
	"mannabook/internal/slots"
)

// SlotSource produces offerable slots for a civil day.
type SlotSource interface {
	Generate(ctx context.Context, date time.Time, liveDuration time.Duration, now time.Time) ([]slots.Slot, error)
}

// BookingReconciler processes a confirmed payment event to a terminal state.
type BookingReconciler interface {
	Reconcile(ctx context.Context, ev models.PaymentEvent) (reconcile.Result, error)
}

// EventParser verifies and decodes an inbound webhook payload.
type EventParser interface {
	Parse(payload []byte, signatureHeader string) (ev models.PaymentEvent, handled bool, err error)
}

// CheckoutCreator opens a payment session for a priced selection.
type CheckoutCreator interface {
	CreateSession(sel pricing.Selection, booking payments.BookingDetails) (string, error)
}

// Server holds the handler dependencies.
type Server struct {
	cfg      *config.Config
	slots    SlotSource
	rec      BookingReconciler
	parser   EventParser
	checkout CheckoutCreator
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewServer wires the HTTP server. The generator, reconciler and parser are
// constructed by the caller from the same shared configuration.
func NewServer(cfg *config.Config, slotSource SlotSource, rec BookingReconciler, parser EventParser, checkout CheckoutCreator, logger zerolog.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	return &Server{
		cfg:      cfg,
		slots:    slotSource,
		rec:      rec,
		parser:   parser,
		checkout: checkout,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "api").Logger(),
	}, nil
}

// Routes builds the handler tree with CORS applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/checkout", s.handleCheckout)
	mux.HandleFunc("/api/stripe/webhook", s.handleWebhook)
	if s.cfg.Server.DebugEndpoints {
		mux.HandleFunc("/api/debug/create-event", s.handleDebugCreateEvent)
	}
	return s.corsMiddleware(mux)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
