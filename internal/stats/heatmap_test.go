package stats

import (
	"context"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeatmapGroupsByLocalDay verifies sessions at 23:50 and 00:10 local
// time land on separate days even though they share a UTC date, and that the
// year boundary is local too.
func TestHeatmapGroupsByLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	store := newFakeStore()
	store.session("late", models.WorkoutPush, time.Date(2026, 3, 4, 23, 50, 0, 0, loc), time.Hour)
	store.log("late", bench, 1, set{100, 10})
	store.session("early", models.WorkoutPull, time.Date(2026, 3, 5, 0, 10, 0, 0, loc), time.Hour)
	store.log("early", row, 2, set{10, 10})
	store.session("newyear", models.WorkoutLegs, time.Date(2025, 12, 31, 22, 30, 0, 0, time.UTC), time.Hour)
	store.session("prev", models.WorkoutLegs, time.Date(2025, 12, 31, 21, 30, 0, 0, time.UTC), time.Hour)
	store.session("open", models.WorkoutPush, time.Date(2026, 3, 6, 9, 0, 0, 0, loc), 0)

	got, err := newTestEngine(store, loc).HeatmapData(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, []HeatmapDay{
		{Date: "2026-01-01", Volume: 0, SessionCount: 1, Level: 1},
		{Date: "2026-03-04", Volume: 1000, SessionCount: 1, Level: 4},
		{Date: "2026-03-05", Volume: 200, SessionCount: 1, Level: 1},
	}, got)
}

// TestHeatmapSessionCount verifies several sessions on one day are counted
// and their volumes summed.
func TestHeatmapSessionCount(t *testing.T) {
	store := newFakeStore()
	store.session("am", models.WorkoutPush, time.Date(2026, 2, 2, 7, 0, 0, 0, time.UTC), time.Hour)
	store.log("am", bench, 1, set{50, 10})
	store.session("pm", models.WorkoutPull, time.Date(2026, 2, 2, 19, 0, 0, 0, time.UTC), time.Hour)
	store.log("pm", row, 1, set{40, 10})

	got, err := newTestEngine(store, time.UTC).HeatmapData(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].SessionCount)
	assert.Equal(t, 900.0, got[0].Volume)

	empty, err := newTestEngine(store, time.UTC).HeatmapData(context.Background(), 2025)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
