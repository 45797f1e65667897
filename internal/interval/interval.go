// Package interval holds the pure time-interval arithmetic behind slot
// generation and conflict checking.
package interval

import (
	"time"

	"mannabook/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not count as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// WindowOverlaps reports whether a booking window intersects a commitment.
func WindowOverlaps(w models.BookingWindow, c models.Commitment) bool {
	return Overlaps(w.BlockStart, w.BlockEnd, c.Start, c.End)
}

// BufferedWindow derives the full exclusive window for a live-service start:
// prep buffer before, live duration plus clean buffer after.
func BufferedWindow(liveStart time.Time, live, prep, clean time.Duration) models.BookingWindow {
	return models.BookingWindow{
		BlockStart: liveStart.Add(-prep),
		BlockEnd:   liveStart.Add(live + clean),
	}
}
