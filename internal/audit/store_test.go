package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mannabook/internal/events"
	"mannabook/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func outcome(orderID, state string) events.ReconcileOutcome {
	start := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)
	return events.ReconcileOutcome{
		OrderID:      orderID,
		State:        state,
		Window:       models.BookingWindow{BlockStart: start, BlockEnd: start.Add(4 * time.Hour)},
		CustomerName: "Ada Lovelace",
		Package:      "150-250-5h",
		OccurredAt:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, outcome("cs_1", "committed_created")))
	require.NoError(t, store.Record(ctx, outcome("cs_2", "rejected_overlap")))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "cs_2", entries[0].OrderID)
	assert.Equal(t, "rejected_overlap", entries[0].State)
	assert.Equal(t, "2026-06-10T14:00:00Z", entries[0].BlockStart)
	assert.Equal(t, "2026-06-10T18:00:00Z", entries[0].BlockEnd)
	assert.Equal(t, "Ada Lovelace", entries[0].Customer)
}

func TestRecordSkippedWithoutWindow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	o := outcome("cs_3", "skipped_missing_data")
	o.Window = models.BookingWindow{}
	require.NoError(t, store.Record(ctx, o))

	entries, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].BlockStart)
}

func TestExportXLSX(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, outcome("cs_1", "committed_created")))

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, store.ExportXLSX(ctx, path, 100))
	assert.FileExists(t, path)
}
