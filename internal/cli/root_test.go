package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct {
	gotPeriod stats.Period
	gotID     string
	gotYear   int
	closed    bool
	err       error
}

func (f *fakeReports) Overview(_ context.Context, p stats.Period) (*stats.OverviewStats, error) {
	f.gotPeriod = p
	return &stats.OverviewStats{TotalSessions: 12, TotalVolume: 48250, AvgDurationMin: 64, TotalSets: 180}, f.err
}

func (f *fakeReports) Insights(_ context.Context, p stats.Period) ([]stats.Insight, error) {
	f.gotPeriod = p
	return []stats.Insight{
		{Kind: stats.InsightRecord, ExerciseName: "Bench Press", Message: "New record: 100kg!"},
		{Kind: stats.InsightStagnation, ExerciseName: "Squat", Message: "Stagnating at 120kg"},
	}, nil
}

func (f *fakeReports) PersonalRecords(context.Context) ([]stats.PersonalRecord, error) {
	chest := models.MuscleChest
	return []stats.PersonalRecord{{
		ExerciseID: "bench", ExerciseName: "Bench Press", MuscleGroup: &chest,
		BestWeight: 100, BestRepsAtWeight: 3, Estimated1RM: 110,
		Date: time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC),
	}}, nil
}

func (f *fakeReports) ExerciseProgress(_ context.Context, id string, p stats.Period) ([]stats.ProgressPoint, error) {
	f.gotID, f.gotPeriod = id, p
	return []stats.ProgressPoint{
		{Date: time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), MaxWeight: 80, RepsAtMax: 8, TotalVolume: 1280},
		{Date: time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC), MaxWeight: 82.5, RepsAtMax: 6, TotalVolume: 990},
	}, nil
}

func (f *fakeReports) OneRMProgression(_ context.Context, id string, p stats.Period) ([]stats.OneRMPoint, error) {
	f.gotID, f.gotPeriod = id, p
	return []stats.OneRMPoint{{Date: time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), Estimated1RM: 101}}, nil
}

func (f *fakeReports) HeatmapData(_ context.Context, year int) ([]stats.HeatmapDay, error) {
	f.gotYear = year
	return []stats.HeatmapDay{{Date: "2025-01-03", Volume: 5000, SessionCount: 1, Level: 4}}, nil
}

func (f *fakeReports) MuscleVolumeThisWeek(context.Context) (*stats.MuscleWeek, error) {
	return &stats.MuscleWeek{
		WeekStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Groups: []stats.MuscleVolume{
			{MuscleGroup: models.MuscleChest, Volume: 3000, Sets: 9, Ratio: 1, Fatigue: stats.FatigueVeryFatigued},
			{MuscleGroup: models.MuscleLegs, Fatigue: stats.FatigueRest},
		},
	}, nil
}

func (f *fakeReports) CompareSessions(_ context.Context, a, b string) (*stats.Comparison, error) {
	f.gotID = a + "/" + b
	if f.err != nil {
		return nil, f.err
	}
	if b == "missing" {
		return nil, nil
	}
	vd, md := 200.0, 2.5
	return &stats.Comparison{
		A:           &stats.ComparisonSession{Type: models.WorkoutPush, StartedAt: time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)},
		B:           &stats.ComparisonSession{Type: models.WorkoutPush, StartedAt: time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC), DurationMin: 70, TotalVolume: 1400, TotalSets: 4, TotalReps: 30},
		VolumeDelta: 200,
		Exercises: []stats.ExerciseDelta{
			{ComparisonExercise: stats.ComparisonExercise{Name: "Bench Press", Volume: 1200, MaxWeight: 82.5}, VolumeDelta: &vd, MaxWeightDelta: &md},
			{ComparisonExercise: stats.ComparisonExercise{Name: "Dips", Volume: 200, MaxWeight: 20}, IsNew: true},
		},
	}, nil
}

// runCLI executes the command tree against f and returns stdout.
func runCLI(t *testing.T, f *fakeReports, args ...string) (string, error) {
	t.Helper()
	var gotOpts *Options
	open := func(_ context.Context, opts *Options) (Reports, func() error, error) {
		gotOpts = opts
		return f, func() error { f.closed = true; return nil }, nil
	}
	root := NewRootCommand(open, "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	if err == nil {
		require.NotNil(t, gotOpts)
		assert.True(t, f.closed, "reports not closed")
	}
	return out.String(), err
}

func TestOverviewCommand(t *testing.T) {
	f := &fakeReports{}
	out, err := runCLI(t, f, "overview", "--period", "3m")
	require.NoError(t, err)
	assert.Equal(t, stats.PeriodQuarter, f.gotPeriod)
	assert.Contains(t, out, "Overview (3M)")
	assert.Contains(t, out, "48,250 kg")
	assert.Contains(t, out, "64 min")
}

func TestOverviewDefaultPeriod(t *testing.T) {
	f := &fakeReports{}
	_, err := runCLI(t, f, "overview")
	require.NoError(t, err)
	assert.Equal(t, stats.PeriodMonth, f.gotPeriod)
}

func TestInvalidPeriod(t *testing.T) {
	_, err := runCLI(t, &fakeReports{}, "overview", "--period", "2W")
	assert.ErrorIs(t, err, stats.ErrInvalidPeriod)
}

func TestOverviewJSON(t *testing.T) {
	out, err := runCLI(t, &fakeReports{}, "overview", "--json")
	require.NoError(t, err)
	var ov stats.OverviewStats
	require.NoError(t, json.Unmarshal([]byte(out), &ov))
	assert.Equal(t, 12, ov.TotalSessions)
}

func TestOverviewError(t *testing.T) {
	_, err := runCLI(t, &fakeReports{err: errors.New("db down")}, "overview")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestInsightsCommand(t *testing.T) {
	out, err := runCLI(t, &fakeReports{}, "insights")
	require.NoError(t, err)
	assert.Contains(t, out, "RECORD")
	assert.Contains(t, out, "New record: 100kg!")
	assert.Contains(t, out, "PLATEAU")
}

func TestRecordsCommand(t *testing.T) {
	out, err := runCLI(t, &fakeReports{}, "records")
	require.NoError(t, err)
	assert.Contains(t, out, "Bench Press")
	assert.Contains(t, out, "chest")
	assert.Contains(t, out, "110kg")
	assert.Contains(t, out, "2026-03-09")
}

func TestProgressCommand(t *testing.T) {
	f := &fakeReports{}
	out, err := runCLI(t, f, "progress", "bench", "--period", "ALL")
	require.NoError(t, err)
	assert.Equal(t, "bench", f.gotID)
	assert.Equal(t, stats.PeriodAll, f.gotPeriod)
	assert.Contains(t, out, "82.5kg")
	assert.Contains(t, out, "▲ +2.5kg")

	out, err = runCLI(t, f, "progress", "bench", "--one-rm")
	require.NoError(t, err)
	assert.Contains(t, out, "Estimated 1RM bench")
	assert.Contains(t, out, "101kg")

	_, err = runCLI(t, f, "progress")
	assert.Error(t, err)
}

func TestHeatmapCommand(t *testing.T) {
	f := &fakeReports{}
	out, err := runCLI(t, f, "heatmap", "--year", "2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, f.gotYear)

	lines := strings.Split(out, "\n")
	var jan string
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "Jan") {
			jan = l
		}
	}
	require.NotEmpty(t, jan)
	assert.Equal(t, " Jan ··█"+strings.Repeat("·", 28), jan)
	assert.Contains(t, out, "5,000 kg")
}

func TestMusclesCommand(t *testing.T) {
	out, err := runCLI(t, &fakeReports{}, "muscles")
	require.NoError(t, err)
	assert.Contains(t, out, "Muscle load since Mon 9 Mar")
	assert.Contains(t, out, "very fatigued")
	assert.Contains(t, out, "rest")
}

func TestCompareCommand(t *testing.T) {
	f := &fakeReports{}
	out, err := runCLI(t, f, "compare", "s1", "s2")
	require.NoError(t, err)
	assert.Equal(t, "s1/s2", f.gotID)
	assert.Contains(t, out, "push 2026-03-02 vs 2026-03-09")
	assert.Contains(t, out, "▲ +200 kg")
	assert.Contains(t, out, "new")

	_, err = runCLI(t, f, "compare", "s1", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")

	_, err = runCLI(t, &fakeReports{err: stats.ErrSessionTypeMismatch}, "compare", "s1", "s3")
	assert.ErrorIs(t, err, stats.ErrSessionTypeMismatch)
}

func TestOpenerError(t *testing.T) {
	open := func(context.Context, *Options) (Reports, func() error, error) {
		return nil, nil, errors.New("no database")
	}
	root := NewRootCommand(open, "test")
	root.SetArgs([]string{"records"})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
}
