package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompare verifies deltas are B minus A, exercises only in B are flagged
// new without deltas, and exercises only in A are dropped.
func TestCompare(t *testing.T) {
	a := &ComparisonSession{
		ID: "a", DurationMin: 60, TotalVolume: 1000, TotalSets: 3, TotalReps: 30,
		Exercises: []ComparisonExercise{
			{Name: "Bench Press", Volume: 800, Sets: 2, MaxWeight: 40},
			{Name: "Cable Row", Volume: 200, Sets: 1, MaxWeight: 20},
		},
	}
	b := &ComparisonSession{
		ID: "b", DurationMin: 55, TotalVolume: 1200, TotalSets: 3, TotalReps: 25,
		Exercises: []ComparisonExercise{
			{Name: "Bench Press", Volume: 900, Sets: 2, MaxWeight: 45},
			{Name: "Squat", Volume: 300, Sets: 1, MaxWeight: 60},
		},
	}

	c := Compare(a, b)
	assert.Equal(t, 200.0, c.VolumeDelta)
	assert.Equal(t, 0, c.SetsDelta)
	assert.Equal(t, -5.0, c.RepsDelta)
	assert.Equal(t, -5, c.DurationDelta)
	require.Len(t, c.Exercises, 2)

	benchDelta := c.Exercises[0]
	assert.False(t, benchDelta.IsNew)
	require.NotNil(t, benchDelta.VolumeDelta)
	assert.Equal(t, 100.0, *benchDelta.VolumeDelta)
	assert.Equal(t, 0, *benchDelta.SetsDelta)
	assert.Equal(t, 5.0, *benchDelta.MaxWeightDelta)

	squatDelta := c.Exercises[1]
	assert.Equal(t, "Squat", squatDelta.Name)
	assert.True(t, squatDelta.IsNew)
	assert.Nil(t, squatDelta.VolumeDelta)
	assert.Nil(t, squatDelta.SetsDelta)
	assert.Nil(t, squatDelta.MaxWeightDelta)
}

func compareStore() *fakeStore {
	store := newFakeStore()
	store.session("a", models.WorkoutPush, day(-7, 18), 62*time.Minute)
	store.log("a", bench, 1, set{50, 10}, set{50, 10})
	store.session("b", models.WorkoutPush, day(-3, 18), 58*time.Minute)
	store.log("b", squat, 1, set{100, 2})
	store.log("b", bench, 1, set{60, 10}, set{50, 8})
	store.session("pull", models.WorkoutPull, day(-2, 18), time.Hour)
	store.log("pull", row, 1, set{60, 10})
	store.session("open", models.WorkoutPush, day(0, 9), 0)
	return store
}

// TestSessionForComparison verifies totals, health fields and exercise order
// by position in the session.
func TestSessionForComparison(t *testing.T) {
	store := compareStore()
	hr := 142.0
	store.sessions[1].AvgHeartRate = &hr

	got, err := newTestEngine(store, time.UTC).SessionForComparison(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, models.WorkoutPush, got.Type)
	assert.Equal(t, 58, got.DurationMin)
	assert.Equal(t, 1200.0, got.TotalVolume)
	assert.Equal(t, 3, got.TotalSets)
	assert.Equal(t, 20.0, got.TotalReps)
	require.NotNil(t, got.AvgHeartRate)
	assert.Equal(t, 142.0, *got.AvgHeartRate)

	require.Len(t, got.Exercises, 2)
	assert.Equal(t, ComparisonExercise{ExerciseID: squat.id, Name: "Squat", Volume: 200, Sets: 1, MaxWeight: 100}, got.Exercises[0])
	assert.Equal(t, ComparisonExercise{ExerciseID: bench.id, Name: "Bench Press", Volume: 1000, Sets: 2, MaxWeight: 60}, got.Exercises[1])
}

// TestSessionForComparisonMissing verifies an unknown id is a nil result,
// not an error.
func TestSessionForComparisonMissing(t *testing.T) {
	got, err := newTestEngine(compareStore(), time.UTC).SessionForComparison(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestCompareSessions verifies the engine loads both payloads, rejects mixed
// workout types and returns nil when a session is missing.
func TestCompareSessions(t *testing.T) {
	engine := newTestEngine(compareStore(), time.UTC)
	ctx := context.Background()

	c, err := engine.CompareSessions(ctx, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 200.0, c.VolumeDelta)
	assert.Equal(t, -4, c.DurationDelta)
	require.Len(t, c.Exercises, 2)
	assert.True(t, c.Exercises[0].IsNew)
	assert.Equal(t, 0.0, *c.Exercises[1].VolumeDelta)
	assert.Equal(t, 10.0, *c.Exercises[1].MaxWeightDelta)

	_, err = engine.CompareSessions(ctx, "a", "pull")
	assert.True(t, errors.Is(err, ErrSessionTypeMismatch))

	c, err = engine.CompareSessions(ctx, "a", "missing")
	require.NoError(t, err)
	assert.Nil(t, c)
}

// TestComparableSessions verifies newest-first listing of finished sessions
// of one type, honoring the limit.
func TestComparableSessions(t *testing.T) {
	engine := newTestEngine(compareStore(), time.UTC)

	got, err := engine.ComparableSessions(context.Background(), models.WorkoutPush, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	got, err = engine.ComparableSessions(context.Background(), models.WorkoutPush, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
