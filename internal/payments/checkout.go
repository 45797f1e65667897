// Package payments integrates Stripe: checkout session creation carrying the
// reconciliation metadata, and webhook verification/parsing of payment
// confirmations.
package payments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"mannabook/internal/models"
	"mannabook/internal/pricing"
)

// Metadata keys carried through the checkout session to the webhook. The
// session id itself becomes the orderId, so a replayed confirmation always
// references the same key.
const (
	metaPackage         = "pkg"
	metaMainBar         = "mainBar"
	metaPayMode         = "payMode"
	metaSecondEnabled   = "secondEnabled"
	metaSecondBar       = "secondBar"
	metaSecondSize      = "secondSize"
	metaFountainEnabled = "fountainEnabled"
	metaFountainSize    = "fountainSize"
	metaFountainType    = "fountainType"
	metaStartISO        = "startISO"
	metaDateISO         = "dateISO"
	metaHours           = "hours"
	metaFullName        = "fullName"
	metaEmail           = "email"
	metaPhone           = "phone"
	metaVenue           = "venue"
	metaSetup           = "setup"
	metaPower           = "power"
	metaTotal           = "total"
	metaDueNow          = "dueNow"
)

// BookingDetails is the customer/booking side of a checkout request.
type BookingDetails struct {
	StartISO string
	DateISO  string
	FullName string
	Email    string
	Phone    string
	Venue    string
	Setup    string
	Power    string
}

// Client creates Stripe Checkout sessions.
type Client struct {
	api       *client.API
	publicURL string
}

// NewClient builds a checkout client. publicURL is where Stripe sends the
// customer back after payment.
func NewClient(secretKey, publicURL string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, publicURL: strings.TrimRight(publicURL, "/")}
}

// CreateSession prices the selection and opens a Stripe Checkout session for
// the amount due now. Everything the reconciler needs later travels in the
// session metadata.
func (c *Client) CreateSession(sel pricing.Selection, booking BookingDetails) (string, error) {
	session, err := c.api.CheckoutSessions.New(c.sessionParams(sel, booking))
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

// sessionParams builds the Stripe request. The full selection travels in the
// metadata so the webhook record stays human-readable for the operator.
func (c *Client) sessionParams(sel pricing.Selection, booking BookingDetails) *stripe.CheckoutSessionParams {
	quote := pricing.Compute(sel)

	barTitle, _ := pricing.BarTitle(sel.MainBar)
	if barTitle == "" {
		barTitle = "Snack Bar"
	}
	pkgLabel, _ := pricing.PackageLabel(sel.Package)

	payLabel := "25% deposit"
	if sel.PayMode == pricing.PayModeFull {
		payLabel = "Pay in full"
	}
	name := fmt.Sprintf("Manna — %s • %s • %s", barTitle, pkgLabel, payLabel)

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		AllowPromotionCodes: stripe.Bool(false),
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
				UnitAmount: stripe.Int64(pricing.Cents(quote.DueNow)),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(c.publicURL + "/"),
		CancelURL:  stripe.String(c.publicURL + "/"),
	}

	hours := time.Duration(0)
	if d, ok := pricing.LiveHours(sel.Package); ok {
		hours = d
	}

	params.AddMetadata(metaPackage, sel.Package)
	params.AddMetadata(metaMainBar, sel.MainBar)
	params.AddMetadata(metaPayMode, sel.PayMode)
	params.AddMetadata(metaSecondEnabled, strconv.FormatBool(sel.SecondEnabled))
	params.AddMetadata(metaSecondBar, sel.SecondBar)
	params.AddMetadata(metaSecondSize, sel.SecondSize)
	params.AddMetadata(metaFountainEnabled, strconv.FormatBool(sel.FountainEnabled))
	params.AddMetadata(metaFountainSize, sel.FountainSize)
	params.AddMetadata(metaFountainType, sel.FountainType)
	params.AddMetadata(metaStartISO, booking.StartISO)
	params.AddMetadata(metaDateISO, booking.DateISO)
	params.AddMetadata(metaHours, fmt.Sprintf("%g", hours.Hours()))
	params.AddMetadata(metaFullName, booking.FullName)
	params.AddMetadata(metaEmail, booking.Email)
	params.AddMetadata(metaPhone, booking.Phone)
	params.AddMetadata(metaVenue, booking.Venue)
	params.AddMetadata(metaSetup, booking.Setup)
	params.AddMetadata(metaPower, booking.Power)
	params.AddMetadata(metaTotal, fmt.Sprintf("%d", quote.Total))
	params.AddMetadata(metaDueNow, fmt.Sprintf("%d", quote.DueNow))

	return params
}

// eventFromSession maps session metadata into the domain event. Missing or
// malformed fields are left zero; the reconciler decides whether the event is
// actionable.
func eventFromSession(sessionID string, metadata map[string]string) models.PaymentEvent {
	ev := models.PaymentEvent{
		OrderID:      sessionID,
		Package:      metadata[metaPackage],
		MainBar:      metadata[metaMainBar],
		CustomerName: metadata[metaFullName],
		Email:        metadata[metaEmail],
		Phone:        metadata[metaPhone],
		Venue:        metadata[metaVenue],
	}

	if raw := metadata[metaStartISO]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			ev.Start = t
		}
	}

	if raw := metadata[metaHours]; raw != "" {
		if d, ok := parseHours(raw); ok {
			ev.LiveDuration = d
		}
	}
	if ev.LiveDuration == 0 {
		if d, ok := pricing.LiveHours(ev.Package); ok {
			ev.LiveDuration = d
		}
	}

	return ev
}

func parseHours(raw string) (time.Duration, bool) {
	var hours float64
	if _, err := fmt.Sscanf(raw, "%g", &hours); err != nil || hours <= 0 {
		return 0, false
	}
	return time.Duration(hours * float64(time.Hour)), true
}
