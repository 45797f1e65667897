// Package pricing is the pure price-table collaborator: package catalog,
// add-ons and payment modes. It owns the package-to-live-hours lookup used by
// booking validation. No I/O, no state.
package pricing

import (
	"math"
	"time"
)

// Payment modes.
const (
	PayModeDeposit = "deposit" // 25% now
	PayModeFull    = "full"    // flat discount for paying in full
)

// Package codes as sold by the widget.
const (
	Package50to150  = "50-150-5h"
	Package150to250 = "150-250-5h"
	Package250to350 = "250-350-6h"
)

// All amounts in whole USD; Stripe gets cents via Cents.
var basePrices = map[string]int{
	Package50to150:  550,
	Package150to250: 700,
	Package250to350: 900,
}

var secondBarDiscount = map[string]int{
	Package50to150:  50,
	Package150to250: 75,
	Package250to350: 100,
}

var fountainPrices = map[string]int{
	"50":  350,
	"100": 450,
	"150": 550,
}

const (
	fountainWhiteUpcharge = 50
	fullPayFlatOff        = 20
)

var liveHours = map[string]time.Duration{
	Package50to150:  2 * time.Hour,
	Package150to250: 2*time.Hour + 30*time.Minute,
	Package250to350: 3 * time.Hour,
}

type barInfo struct {
	title    string
	priceAdd int
}

var bars = map[string]barInfo{
	"pancake":   {title: "🥞 Mini Pancake"},
	"esquites":  {title: "🌽 Esquites"},
	"maruchan":  {title: "🍜 Maruchan"},
	"tostiloco": {title: "🌶️ Tostiloco (Premium)", priceAdd: 50},
	"snack":     {title: "🍭 Manna Snack Bar — “La Clásica”"},
}

var packageLabels = map[string]string{
	Package50to150:  "50–150 (5 hrs)",
	Package150to250: "150–250 (5 hrs)",
	Package250to350: "250–350 (6 hrs)",
}

// LiveHours maps a package code to its live service duration.
func LiveHours(pkg string) (time.Duration, bool) {
	d, ok := liveHours[pkg]
	return d, ok
}

// BarTitle returns the display title for a bar code.
func BarTitle(code string) (string, bool) {
	b, ok := bars[code]
	return b.title, ok
}

// PackageLabel returns the display label for a package code.
func PackageLabel(pkg string) (string, bool) {
	l, ok := packageLabels[pkg]
	return l, ok
}

// KnownPackage reports whether pkg is in the catalog.
func KnownPackage(pkg string) bool {
	_, ok := basePrices[pkg]
	return ok
}

// Selection is a customer's configured order.
type Selection struct {
	Package string
	MainBar string
	PayMode string

	SecondEnabled bool
	SecondBar     string
	SecondSize    string

	FountainEnabled bool
	FountainSize    string
	FountainType    string
}

// Quote is the priced order: total owed, amount charged now, and any savings
// from the payment mode.
type Quote struct {
	Total   int
	DueNow  int
	Savings int
}

// Compute prices a selection. Unknown codes contribute zero, matching the
// widget's permissive lookup.
func Compute(sel Selection) Quote {
	base := basePrices[sel.Package] + bars[sel.MainBar].priceAdd

	extras := 0
	if sel.SecondEnabled {
		second := basePrices[sel.SecondSize] - secondBarDiscount[sel.SecondSize]
		if second > 0 {
			extras += second
		}
	}
	if sel.FountainEnabled {
		price := fountainPrices[sel.FountainSize]
		if sel.FountainType == "white" || sel.FountainType == "mixed" {
			price += fountainWhiteUpcharge
		}
		extras += price
	}

	total := base + extras

	if sel.PayMode == PayModeFull {
		dueNow := total - fullPayFlatOff
		if dueNow < 0 {
			dueNow = 0
		}
		return Quote{Total: total, DueNow: dueNow, Savings: fullPayFlatOff}
	}
	return Quote{Total: total, DueNow: int(math.Round(float64(total) * 0.25))}
}

// Cents converts whole dollars to the cents Stripe expects.
func Cents(dollars int) int64 {
	return int64(dollars) * 100
}
