package slots

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mannabook/internal/config"
	"mannabook/internal/models"
)

type fakeSnapshots struct {
	snapshot models.DaySnapshot
	calls    int
}

func (f *fakeSnapshots) LoadDay(ctx context.Context, date time.Time) (models.DaySnapshot, error) {
	f.calls++
	return f.snapshot, nil
}

func testConfig(t *testing.T, tz string, maxConcurrent int) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Booking.Timezone = tz
	cfg.Booking.BusinessHoursStart = 9
	cfg.Booking.BusinessHoursEnd = 22
	cfg.Booking.PrepMinutes = 60
	cfg.Booking.CleanMinutes = 60
	cfg.Booking.MaxConcurrent = maxConcurrent
	return cfg
}

func newTestGenerator(t *testing.T, tz string, maxConcurrent int, snaps SnapshotSource) *Generator {
	t.Helper()
	gen, err := NewGenerator(snaps, testConfig(t, tz, maxConcurrent), zerolog.Nop())
	require.NoError(t, err)
	return gen
}

func TestGenerateEmptyDayOffersAllHours(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	fake := &fakeSnapshots{}
	gen := newTestGenerator(t, "America/Los_Angeles", 1, fake)

	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, loc)

	slots, err := gen.Generate(context.Background(), date, 2*time.Hour, now)
	require.NoError(t, err)

	// Business hours 9..22 inclusive, nothing committed: 14 slots.
	require.Len(t, slots, 14)
	assert.Equal(t, time.Date(2026, 6, 10, 9, 0, 0, 0, loc), slots[0].Start)
	assert.Equal(t, time.Date(2026, 6, 10, 22, 0, 0, 0, loc), slots[13].Start)
	assert.Equal(t, 1, fake.calls, "snapshot must be fetched once per call, not once per hour")
}

func TestGenerateExcludesConflictingHours(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// One existing commitment with buffered window [11:00, 15:00) local.
	fake := &fakeSnapshots{snapshot: models.DaySnapshot{{
		ID:      "ev1",
		OrderID: "order-a",
		Start:   time.Date(2026, 6, 10, 11, 0, 0, 0, loc),
		End:     time.Date(2026, 6, 10, 15, 0, 0, 0, loc),
	}}}
	gen := newTestGenerator(t, "America/Los_Angeles", 1, fake)

	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, loc)

	slots, err := gen.Generate(context.Background(), date, 2*time.Hour, now)
	require.NoError(t, err)

	offered := map[int]bool{}
	for _, s := range slots {
		offered[s.Start.In(loc).Hour()] = true
	}

	// Candidate h has buffered window [h-1, h+3). Hours 9 through 15 all
	// intersect [11:00, 15:00); hour 15's window [14:00, 18:00) still
	// overlaps by one hour. Hour 16's window [15:00, 19:00) touches the
	// existing end exactly: half-open, admitted.
	for h := 9; h <= 15; h++ {
		assert.Falsef(t, offered[h], "hour %d should be excluded", h)
	}
	for h := 16; h <= 22; h++ {
		assert.Truef(t, offered[h], "hour %d should be admitted", h)
	}
}

func TestGenerateDropsPastHours(t *testing.T) {
	loc := time.UTC
	fake := &fakeSnapshots{}
	gen := newTestGenerator(t, "UTC", 1, fake)

	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, loc)

	slots, err := gen.Generate(context.Background(), date, 2*time.Hour, now)
	require.NoError(t, err)

	// Hours 9..12 are not after now; 13..22 remain.
	require.Len(t, slots, 10)
	assert.Equal(t, 13, slots[0].Start.Hour())
}

func TestGenerateConvertsHoursInResourceZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	fake := &fakeSnapshots{}
	gen := newTestGenerator(t, "America/Los_Angeles", 1, fake)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 2026-03-08 is the spring-forward date in Los Angeles: 9am local is
	// UTC-7. The day before, 9am local is UTC-8.
	before, err := gen.Generate(context.Background(), time.Date(2026, 3, 7, 0, 0, 0, 0, loc), 2*time.Hour, now)
	require.NoError(t, err)
	after, err := gen.Generate(context.Background(), time.Date(2026, 3, 8, 0, 0, 0, 0, loc), 2*time.Hour, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 7, 17, 0, 0, 0, time.UTC), before[0].Start.UTC())
	assert.Equal(t, time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC), after[0].Start.UTC())
}

func TestGenerateRejectsNonPositiveDuration(t *testing.T) {
	gen := newTestGenerator(t, "UTC", 1, &fakeSnapshots{})

	_, err := gen.Generate(context.Background(), time.Now(), 0, time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGenerateWithConcurrencyBudget(t *testing.T) {
	loc := time.UTC
	// One overlapping commitment, capacity 2: every hour stays offerable.
	fake := &fakeSnapshots{snapshot: models.DaySnapshot{{
		ID:      "ev1",
		OrderID: "order-a",
		Start:   time.Date(2026, 6, 10, 11, 0, 0, 0, loc),
		End:     time.Date(2026, 6, 10, 15, 0, 0, 0, loc),
	}}}
	gen := newTestGenerator(t, "UTC", 2, fake)

	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, loc)

	slots, err := gen.Generate(context.Background(), date, 2*time.Hour, now)
	require.NoError(t, err)
	assert.Len(t, slots, 14)
}
