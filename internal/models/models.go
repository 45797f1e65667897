// Package models defines the core domain types shared across the booking service.
package models

import (
	"errors"
	"time"
)

// Sentinel errors for the synchronous rejection paths. Business outcomes
// (full / overlap) are not errors and are expressed as decisions instead.
var (
	// ErrInvalidInput marks a malformed request rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated marks a reconciliation event whose signature check
	// failed. Nothing is executed past this point.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Commitment is a record held by the calendar-of-record. The service only
// reads and writes commitments through the calendar client; it never stores
// them locally.
type Commitment struct {
	ID          string
	Start       time.Time
	End         time.Time
	Cancelled   bool
	OrderID     string
	Summary     string
	Description string
}

// BookingWindow is the true unit of exclusivity: the live service time plus
// prep and clean buffers. Derived, never stored independently.
type BookingWindow struct {
	BlockStart time.Time
	BlockEnd   time.Time
}

// Valid reports whether the window has positive extent.
func (w BookingWindow) Valid() bool {
	return w.BlockEnd.After(w.BlockStart)
}

// Equal reports whether two windows cover the same instants.
func (w BookingWindow) Equal(o BookingWindow) bool {
	return w.BlockStart.Equal(o.BlockStart) && w.BlockEnd.Equal(o.BlockEnd)
}

// DaySnapshot is the set of non-cancelled commitments intersecting one civil
// day, ordered by start time ascending. It is fetched fresh for every
// generator call and every reconciliation attempt; caching one across
// requests directly causes double-booking.
type DaySnapshot []Commitment

// FindOrder returns the commitment carrying the given order id, or nil.
func (s DaySnapshot) FindOrder(orderID string) *Commitment {
	if orderID == "" {
		return nil
	}
	for i := range s {
		if s[i].OrderID == orderID {
			return &s[i]
		}
	}
	return nil
}

// CapacityPolicy caps how many booking windows may mutually overlap at any
// instant. The value lives in configuration and is injected into both the
// slot generator and the enforcer so the two can never drift apart.
type CapacityPolicy struct {
	MaxConcurrent int
}

// PaymentEvent is a verified payment confirmation, already authenticated by
// the payments layer. OrderID is the idempotency key correlating the payment
// to at most one calendar commitment.
type PaymentEvent struct {
	OrderID string

	// Start is the absolute live-service start instant. Zero means the
	// upstream event did not carry one.
	Start time.Time

	// LiveDuration is the core service time excluding buffers. Zero means
	// it could not be derived from the event.
	LiveDuration time.Duration

	// Package is the purchased package code, kept for display.
	Package string

	CustomerName string
	Email        string
	Phone        string
	Venue        string
	MainBar      string
}
