package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mannabook/internal/models"
)

// SnapshotLoader fetches the fresh day snapshot every operation works from.
// The day window is [local midnight, next local midnight): a fixed shorter
// window would clip late-night bookings whose buffered end crosses midnight.
type SnapshotLoader struct {
	cal     CalendarOfRecord
	loc     *time.Location
	timeout time.Duration
}

// NewSnapshotLoader wires a loader over the calendar-of-record. All day
// bucketing uses loc, the resource's configured timezone.
func NewSnapshotLoader(cal CalendarOfRecord, loc *time.Location, timeout time.Duration) *SnapshotLoader {
	return &SnapshotLoader{cal: cal, loc: loc, timeout: timeout}
}

// LoadDay returns the non-cancelled commitments intersecting the civil day
// containing date, ordered by start ascending. Never cached; staleness here
// is a double-booking.
func (l *SnapshotLoader) LoadDay(ctx context.Context, date time.Time) (models.DaySnapshot, error) {
	local := date.In(l.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, l.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	commitments, err := l.cal.ListCommitments(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load day %s: %w", dayStart.Format("2006-01-02"), err)
	}

	snapshot := make(models.DaySnapshot, 0, len(commitments))
	for _, c := range commitments {
		if c.Cancelled {
			continue
		}
		snapshot = append(snapshot, c)
	}

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].Start.Before(snapshot[j].Start)
	})
	return snapshot, nil
}
