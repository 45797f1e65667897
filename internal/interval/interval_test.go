package interval

import (
	"testing"
	"time"

	"mannabook/internal/models"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	h := time.Hour

	tests := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{
			name:   "disjoint",
			aStart: base, aEnd: base.Add(2 * h),
			bStart: base.Add(3 * h), bEnd: base.Add(4 * h),
			expected: false,
		},
		{
			name:   "touching endpoints are not overlap",
			aStart: base, aEnd: base.Add(2 * h),
			bStart: base.Add(2 * h), bEnd: base.Add(4 * h),
			expected: false,
		},
		{
			name:   "one second past the boundary is a conflict",
			aStart: base, aEnd: base.Add(2*h + time.Second),
			bStart: base.Add(2 * h), bEnd: base.Add(4 * h),
			expected: true,
		},
		{
			name:   "containment",
			aStart: base, aEnd: base.Add(4 * h),
			bStart: base.Add(h), bEnd: base.Add(2 * h),
			expected: true,
		},
		{
			name:   "identical intervals",
			aStart: base, aEnd: base.Add(h),
			bStart: base, bEnd: base.Add(h),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.expected {
				t.Errorf("Overlaps = %v, want %v", got, tt.expected)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.expected {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBufferedWindowRoundTrip(t *testing.T) {
	prep := time.Hour
	clean := time.Hour
	liveStart := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

	for _, live := range []time.Duration{
		2 * time.Hour,
		2*time.Hour + 30*time.Minute,
		3 * time.Hour,
	} {
		w := BufferedWindow(liveStart, live, prep, clean)

		if !w.Valid() {
			t.Fatalf("window %v not valid", w)
		}
		if got := w.BlockStart.Add(prep); !got.Equal(liveStart) {
			t.Errorf("recovered live start %v, want %v", got, liveStart)
		}
		if got := w.BlockEnd.Sub(w.BlockStart) - prep - clean; got != live {
			t.Errorf("recovered live duration %v, want %v", got, live)
		}
	}
}

func TestWindowOverlaps(t *testing.T) {
	base := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	w := models.BookingWindow{BlockStart: base, BlockEnd: base.Add(4 * time.Hour)}

	touching := models.Commitment{Start: base.Add(4 * time.Hour), End: base.Add(6 * time.Hour)}
	if WindowOverlaps(w, touching) {
		t.Error("commitment starting exactly at window end must not overlap")
	}

	inside := models.Commitment{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}
	if !WindowOverlaps(w, inside) {
		t.Error("contained commitment must overlap")
	}
}
