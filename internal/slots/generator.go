// Package slots enumerates offerable start times for a civil day. The
// generator is advisory: it filters through the same enforcer the reconciler
// uses, but the authoritative check happens again at commit time.
package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mannabook/internal/capacity"
	"mannabook/internal/config"
	"mannabook/internal/interval"
	"mannabook/internal/models"
)

// SnapshotSource provides the fresh day snapshot for a date.
type SnapshotSource interface {
	LoadDay(ctx context.Context, date time.Time) (models.DaySnapshot, error)
}

// Slot is one offerable start time with its derived exclusive window.
type Slot struct {
	Start  time.Time
	Window models.BookingWindow
}

// Generator turns a day's existing commitments into offerable start times.
type Generator struct {
	snapshots SnapshotSource
	loc       *time.Location
	hourStart int
	hourEnd   int
	prep      time.Duration
	clean     time.Duration
	policy    models.CapacityPolicy
	logger    zerolog.Logger
}

// NewGenerator builds a generator from the shared configuration, so business
// hours, buffers and capacity cannot drift from the enforcer's view.
func NewGenerator(snapshots SnapshotSource, cfg *config.Config, logger zerolog.Logger) (*Generator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	return &Generator{
		snapshots: snapshots,
		loc:       loc,
		hourStart: cfg.Booking.BusinessHoursStart,
		hourEnd:   cfg.Booking.BusinessHoursEnd,
		prep:      cfg.PrepBuffer(),
		clean:     cfg.CleanBuffer(),
		policy:    cfg.CapacityPolicy(),
		logger:    logger.With().Str("component", "slots").Logger(),
	}, nil
}

// Generate returns admitted slots for the civil day containing date, ordered
// by ascending civil hour. Each candidate hour is converted in the resource
// timezone (DST-correct), past candidates are dropped, and the buffered
// window is tested against the day snapshot through the enforcer. The
// snapshot is fetched exactly once per call.
func (g *Generator) Generate(ctx context.Context, date time.Time, liveDuration time.Duration, now time.Time) ([]Slot, error) {
	if liveDuration <= 0 {
		return nil, fmt.Errorf("%w: live duration must be positive", models.ErrInvalidInput)
	}

	snapshot, err := g.snapshots.LoadDay(ctx, date)
	if err != nil {
		return nil, err
	}

	local := date.In(g.loc)
	var out []Slot
	for h := g.hourStart; h <= g.hourEnd; h++ {
		start := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, g.loc)
		if !start.After(now) {
			continue
		}

		w := interval.BufferedWindow(start, liveDuration, g.prep, g.clean)
		if capacity.CanCommit(w, snapshot, "", g.policy).Rejected() {
			continue
		}

		out = append(out, Slot{Start: start, Window: w})
	}

	g.logger.Debug().
		Str("date", local.Format("2006-01-02")).
		Dur("live", liveDuration).
		Int("offered", len(out)).
		Int("commitments", len(snapshot)).
		Msg("slots generated")
	return out, nil
}
