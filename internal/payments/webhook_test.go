package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v78"

	"mannabook/internal/models"
)

const testSecret = "whsec_test_secret"

// signPayload builds a valid Stripe-Signature header for the payload.
func signPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func sessionPayload(metadata string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_123", "metadata": %s}}
	}`, stripe.APIVersion, metadata))
}

func TestParseValidEvent(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	payload := sessionPayload(`{
		"pkg": "150-250-5h",
		"mainBar": "pancake",
		"startISO": "2026-06-10T15:00:00Z",
		"hours": "2.5",
		"fullName": "Ada Lovelace",
		"email": "ada@example.com",
		"phone": "+1 555 0100",
		"venue": "Backyard"
	}`)

	ev, handled, err := parser.Parse(payload, signPayload(t, payload, testSecret))
	require.NoError(t, err)
	require.True(t, handled)

	assert.Equal(t, "cs_test_123", ev.OrderID)
	assert.Equal(t, time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC), ev.Start.UTC())
	assert.Equal(t, 2*time.Hour+30*time.Minute, ev.LiveDuration)
	assert.Equal(t, "Ada Lovelace", ev.CustomerName)
	assert.Equal(t, "150-250-5h", ev.Package)
}

func TestParseFallsBackToPackageHours(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	payload := sessionPayload(`{
		"pkg": "250-350-6h",
		"startISO": "2026-06-10T15:00:00Z"
	}`)

	ev, handled, err := parser.Parse(payload, signPayload(t, payload, testSecret))
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, 3*time.Hour, ev.LiveDuration)
}

func TestParseMissingDataStaysZero(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	payload := sessionPayload(`{"fullName": "Ada Lovelace"}`)

	ev, handled, err := parser.Parse(payload, signPayload(t, payload, testSecret))
	require.NoError(t, err)
	require.True(t, handled)

	// The parser does not decide; the reconciler skips zero-valued events.
	assert.True(t, ev.Start.IsZero())
	assert.Zero(t, ev.LiveDuration)
	assert.Equal(t, "cs_test_123", ev.OrderID)
}

func TestParseRejectsBadSignature(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	payload := sessionPayload(`{}`)

	_, _, err := parser.Parse(payload, signPayload(t, payload, "whsec_wrong"))
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, _, err = parser.Parse(payload, "garbage")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestParseIgnoresOtherEventTypes(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"api_version": %q,
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123"}}
	}`, stripe.APIVersion))

	_, handled, err := parser.Parse(payload, signPayload(t, payload, testSecret))
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		raw      string
		expected time.Duration
		ok       bool
	}{
		{"2", 2 * time.Hour, true},
		{"2.5", 2*time.Hour + 30*time.Minute, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		d, ok := parseHours(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.expected, d, tt.raw)
	}
}
