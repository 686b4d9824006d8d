package stats

import (
	"context"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEstimateOneRM verifies the Epley formula and its rounding.
func TestEstimateOneRM(t *testing.T) {
	tests := []struct {
		weight, reps, want float64
	}{
		{100, 10, 133},
		{100, 1, 103},
		{80, 8, 101},
		{60, 0, 60},
	}
	for _, tt := range tests {
		if got := EstimateOneRM(tt.weight, tt.reps); got != tt.want {
			t.Errorf("EstimateOneRM(%v, %v) = %v, want %v", tt.weight, tt.reps, got, tt.want)
		}
	}
}

// TestExerciseProgressRepsAtMaxTieBreak verifies that among sets tied at the
// session's top weight, the one with the most reps populates reps_at_max.
func TestExerciseProgressRepsAtMaxTieBreak(t *testing.T) {
	store := newFakeStore()
	store.session("s1", models.WorkoutPush, day(-5, 18), time.Hour)
	store.log("s1", bench, 1, set{80, 5}, set{80, 8}, set{70, 12})

	got, err := newTestEngine(store, time.UTC).ExerciseProgress(context.Background(), bench.id, PeriodMonth)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ProgressPoint{
		SessionID:   "s1",
		Date:        day(-5, 18),
		MaxWeight:   80,
		TotalVolume: 1880,
		TotalReps:   25,
		RepsAtMax:   8,
	}, got[0])
}

// TestExerciseProgressSeries verifies one point per finished session, in
// ascending date order, using effective weight throughout.
func TestExerciseProgressSeries(t *testing.T) {
	store := newFakeStore()
	store.session("late", models.WorkoutPush, day(-2, 18), time.Hour)
	store.log("late", bench, 2, set{50, 6})
	store.session("early", models.WorkoutPush, day(-9, 18), time.Hour)
	store.log("early", bench, 1, set{90, 3}, set{95, 1})
	store.log("early", squat, 1, set{140, 5})
	store.session("open", models.WorkoutPush, day(0, 9), 0)
	store.log("open", bench, 1, set{150, 5})
	store.session("ancient", models.WorkoutPush, day(-90, 18), time.Hour)
	store.log("ancient", bench, 1, set{60, 5})

	engine := newTestEngine(store, time.UTC)
	got, err := engine.ExerciseProgress(context.Background(), bench.id, PeriodMonth)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "early", got[0].SessionID)
	assert.Equal(t, 95.0, got[0].MaxWeight)
	assert.Equal(t, 1.0, got[0].RepsAtMax)
	assert.Equal(t, 365.0, got[0].TotalVolume)

	assert.Equal(t, "late", got[1].SessionID)
	assert.Equal(t, 100.0, got[1].MaxWeight)
	assert.Equal(t, 600.0, got[1].TotalVolume)

	all, err := engine.ExerciseProgress(context.Background(), bench.id, PeriodAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// TestOneRMProgression verifies the series mirrors ExerciseProgress and
// applies the Epley estimate to max weight and reps at max.
func TestOneRMProgression(t *testing.T) {
	store := newFakeStore()
	store.session("s1", models.WorkoutPush, day(-9, 18), time.Hour)
	store.log("s1", bench, 1, set{100, 10})
	store.session("s2", models.WorkoutPush, day(-2, 18), time.Hour)
	store.log("s2", bench, 1, set{80, 5}, set{80, 8})

	got, err := newTestEngine(store, time.UTC).OneRMProgression(context.Background(), bench.id, PeriodMonth)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 133.0, got[0].Estimated1RM)
	assert.Equal(t, 101.0, got[1].Estimated1RM)
	assert.True(t, got[0].Date.Before(got[1].Date))
}

// TestExerciseProgressUnknownExercise verifies an unknown id yields an empty
// series.
func TestExerciseProgressUnknownExercise(t *testing.T) {
	got, err := newTestEngine(newFakeStore(), time.UTC).ExerciseProgress(context.Background(), "nope", PeriodAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}
