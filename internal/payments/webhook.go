package payments

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"mannabook/internal/models"
)

// completedEventType is the only Stripe event this service reconciles.
const completedEventType = "checkout.session.completed"

// WebhookParser verifies and decodes inbound Stripe events.
type WebhookParser struct {
	secret string
}

// NewWebhookParser builds a parser for the endpoint's signing secret.
func NewWebhookParser(secret string) *WebhookParser {
	return &WebhookParser{secret: secret}
}

// Parse verifies the signature, then decodes a completed checkout session
// into a PaymentEvent. The signature check happens before anything else; a
// failure wraps models.ErrUnauthenticated and no further work runs. handled
// is false for event types this service does not reconcile — the caller
// acknowledges those without action.
func (p *WebhookParser) Parse(payload []byte, signatureHeader string) (ev models.PaymentEvent, handled bool, err error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, p.secret)
	if err != nil {
		return models.PaymentEvent{}, false, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	if string(event.Type) != completedEventType {
		return models.PaymentEvent{}, false, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return models.PaymentEvent{}, false, fmt.Errorf("%w: decode checkout session: %v", models.ErrInvalidInput, err)
	}

	return eventFromSession(session.ID, session.Metadata), true, nil
}
