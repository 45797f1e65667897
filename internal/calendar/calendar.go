// Package calendar talks to the calendar-of-record. The calendar is the
// single source of truth for commitments; nothing in this service caches its
// contents durably.
package calendar

import (
	"context"
	"time"

	"mannabook/internal/models"
)

// CalendarOfRecord is the external system holding authoritative commitments.
type CalendarOfRecord interface {
	// ListCommitments returns non-cancelled commitments intersecting
	// [from, to), ordered by start time ascending.
	ListCommitments(ctx context.Context, from, to time.Time) ([]models.Commitment, error)

	// InsertCommitment creates a commitment and returns its id.
	InsertCommitment(ctx context.Context, c models.Commitment) (string, error)

	// UpdateCommitment rewrites the window and metadata of an existing
	// commitment in place.
	UpdateCommitment(ctx context.Context, id string, c models.Commitment) error
}
