// Package reconcile turns a confirmed payment event into exactly one
// calendar commitment, safely under retries and concurrent delivery. The
// order id carried by the event is the idempotency key; the calendar-of-record
// is the only coordination point.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mannabook/internal/calendar"
	"mannabook/internal/capacity"
	"mannabook/internal/config"
	"mannabook/internal/daylock"
	"mannabook/internal/events"
	"mannabook/internal/interval"
	"mannabook/internal/models"
	"mannabook/internal/pricing"
)

// State is a terminal reconciliation outcome.
type State string

const (
	// StateSkippedMissingData: the event lacks a start instant or a
	// positive live duration. Acknowledged so the sender stops retrying
	// unrecoverable data; no mutation performed.
	StateSkippedMissingData State = "skipped_missing_data"

	// StateRejectedFull: the concurrency budget for the window is spent.
	StateRejectedFull State = "rejected_full"

	// StateRejectedOverlap: the window collides with another booking.
	StateRejectedOverlap State = "rejected_overlap"

	// StateCommittedCreated: a new commitment was inserted.
	StateCommittedCreated State = "committed_created"

	// StateCommittedUpdated: the order's existing commitment was rewritten
	// in place (replays and corrections land here).
	StateCommittedUpdated State = "committed_updated"
)

// Result reports the terminal state of one reconciliation attempt.
type Result struct {
	State        State
	CommitmentID string
	Window       models.BookingWindow
}

// Committed reports whether the attempt left a commitment in the calendar.
func (r Result) Committed() bool {
	return r.State == StateCommittedCreated || r.State == StateCommittedUpdated
}

// SnapshotSource provides the fresh day snapshot for a date.
type SnapshotSource interface {
	LoadDay(ctx context.Context, date time.Time) (models.DaySnapshot, error)
}

// Reconciler applies the idempotent booking reconciliation protocol.
type Reconciler struct {
	cal        calendar.CalendarOfRecord
	snapshots  SnapshotSource
	locks      daylock.Locker
	bus        *events.Bus
	resourceID string
	loc        *time.Location
	prep       time.Duration
	clean      time.Duration
	timeout    time.Duration
	policy     models.CapacityPolicy
	logger     zerolog.Logger
}

// New wires a reconciler from the shared configuration; buffers and capacity
// come from the same object the slot generator uses.
func New(cal calendar.CalendarOfRecord, snapshots SnapshotSource, locks daylock.Locker, bus *events.Bus, cfg *config.Config, logger zerolog.Logger) (*Reconciler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	return &Reconciler{
		cal:        cal,
		snapshots:  snapshots,
		locks:      locks,
		bus:        bus,
		resourceID: cfg.Calendar.CalendarID,
		loc:        loc,
		prep:       cfg.PrepBuffer(),
		clean:      cfg.CleanBuffer(),
		timeout:    cfg.CalendarTimeout(),
		policy:     cfg.CapacityPolicy(),
		logger:     logger.With().Str("component", "reconcile").Logger(),
	}, nil
}

// Reconcile processes one confirmed payment event through to a terminal
// state. Delivering the same event N times yields exactly one commitment for
// its order id: replays find the existing commitment and rewrite it to the
// same values. Business rejections return a nil error; only transient I/O
// failures return an error, and those never leave a partial mutation behind.
func (r *Reconciler) Reconcile(ctx context.Context, ev models.PaymentEvent) (Result, error) {
	log := r.logger.With().Str("order_id", ev.OrderID).Logger()

	if ev.OrderID == "" || ev.Start.IsZero() || ev.LiveDuration <= 0 {
		log.Warn().
			Bool("has_start", !ev.Start.IsZero()).
			Dur("live", ev.LiveDuration).
			Msg("event missing booking data; skipped")
		return r.finish(ev, Result{State: StateSkippedMissingData}), nil
	}

	window := interval.BufferedWindow(ev.Start, ev.LiveDuration, r.prep, r.clean)

	// The lock spans snapshot-load through commit: two orders racing for
	// overlapping windows serialize here instead of both passing the
	// enforcer against the same stale snapshot.
	release, err := r.locks.Acquire(ctx, daylock.Key(r.resourceID, ev.Start.In(r.loc)))
	if err != nil {
		return Result{}, fmt.Errorf("acquire day lock: %w", err)
	}
	defer release()

	snapshot, err := r.snapshots.LoadDay(ctx, ev.Start)
	if err != nil {
		return Result{}, err
	}

	existing := snapshot.FindOrder(ev.OrderID)

	decision := capacity.CanCommit(window, snapshot, ev.OrderID, r.policy)
	if decision.Rejected() {
		state := StateRejectedOverlap
		if decision == capacity.RejectFull {
			state = StateRejectedFull
		}
		log.Warn().Str("decision", decision.String()).
			Time("block_start", window.BlockStart).
			Time("block_end", window.BlockEnd).
			Msg("booking declined at commit time")
		return r.finish(ev, Result{State: state, Window: window}), nil
	}

	c := r.buildCommitment(ev, window)

	// The commit call gets the same bounded timeout as the snapshot load: a
	// hung calendar write must not pin the day lock past the deadline.
	commitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if existing != nil {
		if err := r.cal.UpdateCommitment(commitCtx, existing.ID, c); err != nil {
			return Result{}, err
		}
		log.Info().Str("commitment_id", existing.ID).Msg("existing commitment updated")
		return r.finish(ev, Result{State: StateCommittedUpdated, CommitmentID: existing.ID, Window: window}), nil
	}

	id, err := r.cal.InsertCommitment(commitCtx, c)
	if err != nil {
		return Result{}, err
	}
	log.Info().Str("commitment_id", id).Msg("commitment created")
	return r.finish(ev, Result{State: StateCommittedCreated, CommitmentID: id, Window: window}), nil
}

// buildCommitment is deterministic in the event, so replays rewrite the
// stored record to identical values.
func (r *Reconciler) buildCommitment(ev models.PaymentEvent, w models.BookingWindow) models.Commitment {
	bar := ev.MainBar
	if title, ok := pricing.BarTitle(ev.MainBar); ok {
		bar = title
	}

	return models.Commitment{
		Start:   w.BlockStart,
		End:     w.BlockEnd,
		OrderID: ev.OrderID,
		Summary: fmt.Sprintf("Manna — %s (%s)", bar, ev.Package),
		Description: fmt.Sprintf(
			"Client: %s (%s)\nPhone: %s\nVenue: %s\nLive service: %s, %s\nOrder: %s",
			ev.CustomerName, ev.Email, ev.Phone, ev.Venue,
			ev.Start.In(r.loc).Format("2006-01-02 15:04"), ev.LiveDuration, ev.OrderID,
		),
	}
}

func (r *Reconciler) finish(ev models.PaymentEvent, res Result) Result {
	if r.bus != nil {
		r.bus.Publish(events.ReconcileOutcome{
			OrderID:      ev.OrderID,
			State:        string(res.State),
			Window:       res.Window,
			CommitmentID: res.CommitmentID,
			CustomerName: ev.CustomerName,
			Package:      ev.Package,
		})
	}
	return res
}
