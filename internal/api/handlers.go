package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mannabook/internal/metrics"
	"mannabook/internal/models"
	"mannabook/internal/payments"
	"mannabook/internal/pricing"
)

const webhookMaxBody = 1 << 20 // Stripe payloads are small; cap reads

type slotResponse struct {
	StartISO string `json:"startISO"`
}

// handleAvailability answers GET /api/availability?date=YYYY-MM-DD&hours=2.5
// with the offerable slot starts for that civil day.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateRaw := r.URL.Query().Get("date")
	date, err := time.ParseInLocation("2006-01-02", dateRaw, s.loc)
	if err != nil {
		metrics.IncSlotQuery("invalid")
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	hoursRaw := r.URL.Query().Get("hours")
	if hoursRaw == "" {
		hoursRaw = "2"
	}
	hours, err := strconv.ParseFloat(hoursRaw, 64)
	if err != nil || hours <= 0 {
		metrics.IncSlotQuery("invalid")
		writeError(w, http.StatusBadRequest, "hours must be a positive number")
		return
	}

	live := time.Duration(hours * float64(time.Hour))
	found, err := s.slots.Generate(r.Context(), date, live, s.now())
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			metrics.IncSlotQuery("invalid")
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		metrics.IncSlotQuery("error")
		s.logger.Error().Err(err).Str("date", dateRaw).Msg("slot generation failed")
		writeError(w, http.StatusBadGateway, "calendar unavailable")
		return
	}

	metrics.IncSlotQuery("ok")
	out := make([]slotResponse, 0, len(found))
	for _, slot := range found {
		out = append(out, slotResponse{StartISO: slot.Start.Format(time.RFC3339)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

type checkoutRequest struct {
	Package         string `json:"pkg"`
	MainBar         string `json:"mainBar"`
	PayMode         string `json:"payMode"`
	SecondEnabled   bool   `json:"secondEnabled"`
	SecondBar       string `json:"secondBar"`
	SecondSize      string `json:"secondSize"`
	FountainEnabled bool   `json:"fountainEnabled"`
	FountainSize    string `json:"fountainSize"`
	FountainType    string `json:"fountainType"`
	DateISO         string `json:"dateISO"`
	StartISO        string `json:"startISO"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Venue           string `json:"venue"`
	Setup           string `json:"setup"`
	Power           string `json:"power"`
}

// handleCheckout prices the selection and opens a payment session.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncCheckout("invalid")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !pricing.KnownPackage(req.Package) {
		metrics.IncCheckout("invalid")
		writeError(w, http.StatusBadRequest, "unknown package")
		return
	}
	if req.MainBar == "" || req.StartISO == "" {
		metrics.IncCheckout("invalid")
		writeError(w, http.StatusBadRequest, "mainBar and startISO are required")
		return
	}
	if req.PayMode != pricing.PayModeDeposit && req.PayMode != pricing.PayModeFull {
		metrics.IncCheckout("invalid")
		writeError(w, http.StatusBadRequest, "payMode must be deposit or full")
		return
	}
	if _, err := time.Parse(time.RFC3339, req.StartISO); err != nil {
		metrics.IncCheckout("invalid")
		writeError(w, http.StatusBadRequest, "startISO must be RFC3339")
		return
	}

	sel := pricing.Selection{
		Package:         req.Package,
		MainBar:         req.MainBar,
		PayMode:         req.PayMode,
		SecondEnabled:   req.SecondEnabled,
		SecondBar:       req.SecondBar,
		SecondSize:      req.SecondSize,
		FountainEnabled: req.FountainEnabled,
		FountainSize:    req.FountainSize,
		FountainType:    req.FountainType,
	}
	booking := payments.BookingDetails{
		StartISO: req.StartISO,
		DateISO:  req.DateISO,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Venue:    req.Venue,
		Setup:    req.Setup,
		Power:    req.Power,
	}

	url, err := s.checkout.CreateSession(sel, booking)
	if err != nil {
		metrics.IncCheckout("error")
		s.logger.Error().Err(err).Str("pkg", req.Package).Msg("checkout session failed")
		writeError(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	metrics.IncCheckout("ok")
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleWebhook receives provider callbacks. Signature failures are rejected,
// transient reconcile errors return 5xx so the provider retries, and business
// rejections are acknowledged with 200.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookMaxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	ev, handled, err := s.parser.Parse(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			s.logger.Warn().Msg("webhook signature verification failed")
			writeError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}
	if !handled {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	// The provider only gets an acknowledgement; the decision itself stays
	// internal (logs, metrics, audit trail).
	result, err := s.rec.Reconcile(r.Context(), ev)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", ev.OrderID).Msg("reconcile failed, provider will retry")
		writeError(w, http.StatusBadGateway, "reconciliation failed")
		return
	}

	s.logger.Info().Str("order_id", ev.OrderID).Str("state", string(result.State)).Msg("payment event reconciled")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handleDebugCreateEvent drives a synthetic payment event through the
// reconciler. Only mounted when debug endpoints are enabled.
func (s *Server) handleDebugCreateEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	date, err := time.ParseInLocation("2006-01-02", q.Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	hour := 12
	if raw := q.Get("hour"); raw != "" {
		hour, err = strconv.Atoi(raw)
		if err != nil || hour < 0 || hour > 23 {
			writeError(w, http.StatusBadRequest, "hour must be 0..23")
			return
		}
	}
	pkg := q.Get("pkg")
	if pkg == "" {
		pkg = pricing.Package50to150
	}
	live, ok := pricing.LiveHours(pkg)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown package")
		return
	}

	ev := models.PaymentEvent{
		OrderID:      "debug-" + uuid.NewString(),
		Start:        time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, s.loc),
		LiveDuration: live,
		Package:      pkg,
		CustomerName: q.Get("name"),
		Email:        q.Get("email"),
		MainBar:      q.Get("bar"),
	}

	result, err := s.rec.Reconcile(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"orderId":      ev.OrderID,
		"state":        string(result.State),
		"commitmentId": result.CommitmentID,
	})
}
