package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mannabook/internal/pricing"
)

func TestSessionParamsCarryFullSelection(t *testing.T) {
	c := NewClient("sk_test_key", "https://mannasnacks.example/")

	sel := pricing.Selection{
		Package:         pricing.Package150to250,
		MainBar:         "esquites",
		PayMode:         pricing.PayModeDeposit,
		SecondEnabled:   true,
		SecondBar:       "pancake",
		SecondSize:      pricing.Package50to150,
		FountainEnabled: true,
		FountainSize:    "100",
		FountainType:    "white",
	}
	booking := BookingDetails{
		StartISO: "2026-06-10T15:00:00-07:00",
		DateISO:  "2026-06-10",
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+1 555 0100",
		Venue:    "Backyard, 12 Elm St",
		Setup:    "grass, shade available",
		Power:    "outlet within 50ft",
	}

	params := c.sessionParams(sel, booking)

	// total = 700 + (550-50) + (450+50) = 1700; deposit = 425.
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(42500), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "https://mannasnacks.example/", *params.SuccessURL)

	// Everything the operator reads off the webhook record must travel in
	// the metadata, add-ons and site notes included.
	md := params.Metadata
	assert.Equal(t, "150-250-5h", md["pkg"])
	assert.Equal(t, "esquites", md["mainBar"])
	assert.Equal(t, "deposit", md["payMode"])
	assert.Equal(t, "true", md["secondEnabled"])
	assert.Equal(t, "pancake", md["secondBar"])
	assert.Equal(t, "50-150-5h", md["secondSize"])
	assert.Equal(t, "true", md["fountainEnabled"])
	assert.Equal(t, "100", md["fountainSize"])
	assert.Equal(t, "white", md["fountainType"])
	assert.Equal(t, "2026-06-10T15:00:00-07:00", md["startISO"])
	assert.Equal(t, "grass, shade available", md["setup"])
	assert.Equal(t, "outlet within 50ft", md["power"])
	assert.Equal(t, "2.5", md["hours"])
	assert.Equal(t, "1700", md["total"])
	assert.Equal(t, "425", md["dueNow"])
}

func TestSessionParamsBareMinimumSelection(t *testing.T) {
	c := NewClient("sk_test_key", "https://mannasnacks.example")

	params := c.sessionParams(pricing.Selection{
		Package: pricing.Package50to150,
		MainBar: "snack",
		PayMode: pricing.PayModeFull,
	}, BookingDetails{StartISO: "2026-06-10T15:00:00-07:00"})

	md := params.Metadata
	assert.Equal(t, "false", md["secondEnabled"])
	assert.Equal(t, "false", md["fountainEnabled"])
	assert.Equal(t, "", md["secondBar"])
	assert.Equal(t, "2", md["hours"])

	// Pay-in-full: 550 - 20 = 530 due now.
	assert.Equal(t, int64(53000), *params.LineItems[0].PriceData.UnitAmount)
}
