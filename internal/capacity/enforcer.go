// Package capacity is the single authority deciding whether a booking window
// may be committed against a day's existing commitments. The slot generator
// and the reconciler both delegate here so the admission rule can never drift
// between the two call sites.
package capacity

import (
	"mannabook/internal/interval"
	"mannabook/internal/models"
)

// Decision is the outcome of an admission check.
type Decision int

const (
	// Accept means the window conflicts with nothing and capacity remains.
	Accept Decision = iota

	// RejectFull means the concurrency budget for these instants is
	// already consumed by other bookings.
	RejectFull

	// RejectOverlap means the window collides with another booking on an
	// exclusive resource.
	RejectOverlap
)

// String returns a stable label for logs, metrics and the audit trail.
func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case RejectFull:
		return "reject_full"
	case RejectOverlap:
		return "reject_overlap"
	default:
		return "unknown"
	}
}

// Rejected reports whether the decision declines the booking.
func (d Decision) Rejected() bool {
	return d != Accept
}

// CanCommit applies the concurrent-capacity policy: a window is admitted iff
// strictly fewer than policy.MaxConcurrent non-cancelled commitments overlap
// it. Commitments carrying excludingOrderID are exempt so that re-processing
// a retried event for the same order does not self-reject against its own
// previously committed window.
//
// With MaxConcurrent == 1 the resource is exclusive and a collision is
// reported as RejectOverlap; with a larger budget a saturated window is
// reported as RejectFull.
func CanCommit(window models.BookingWindow, snapshot models.DaySnapshot, excludingOrderID string, policy models.CapacityPolicy) Decision {
	overlapping := 0
	for _, c := range snapshot {
		if c.Cancelled {
			continue
		}
		if excludingOrderID != "" && c.OrderID == excludingOrderID {
			continue
		}
		if interval.WindowOverlaps(window, c) {
			overlapping++
		}
	}

	if overlapping >= policy.MaxConcurrent {
		if policy.MaxConcurrent <= 1 {
			return RejectOverlap
		}
		return RejectFull
	}
	return Accept
}
