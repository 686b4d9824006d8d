package mcp

import (
	"context"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both Local (engine plus
// backend in-process) and HTTPClient (remote via REST API) satisfy it.
type DataSource interface {
	Overview(ctx context.Context, p stats.Period) (*stats.OverviewStats, error)
	SessionTypeStats(ctx context.Context, t models.WorkoutType, p stats.Period) (*stats.SessionTypeStats, error)
	TopExercises(ctx context.Context, p stats.Period, limit int, t models.WorkoutType) ([]stats.TopExercise, error)
	Insights(ctx context.Context, p stats.Period) ([]stats.Insight, error)
	PersonalRecords(ctx context.Context) ([]stats.PersonalRecord, error)
	ExerciseProgress(ctx context.Context, exerciseID string, p stats.Period) ([]stats.ProgressPoint, error)
	OneRMProgression(ctx context.Context, exerciseID string, p stats.Period) ([]stats.OneRMPoint, error)
	ExerciseHistory(ctx context.Context, exerciseID string, p stats.Period) ([]stats.HistorySession, error)
	LastPerformance(ctx context.Context, exerciseID string) ([]stats.LastPerformanceSet, error)
	MuscleVolumeThisWeek(ctx context.Context) (*stats.MuscleWeek, error)
	HeatmapData(ctx context.Context, year int) ([]stats.HeatmapDay, error)
	WeekActivity(ctx context.Context) (*stats.WeekActivity, error)
	Dashboard(ctx context.Context, p stats.Period) (*stats.Dashboard, error)
	ComparableSessions(ctx context.Context, t models.WorkoutType, limit int) ([]stats.ComparableSession, error)
	SessionForComparison(ctx context.Context, id string) (*stats.ComparisonSession, error)
	CompareSessions(ctx context.Context, aID, bID string) (*stats.Comparison, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// Local serves reports straight from a backend.
type Local struct {
	*stats.Engine
	backend storage.Backend
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal wraps an engine and the backend it reads from.
func NewLocal(engine *stats.Engine, backend storage.Backend) *Local {
	return &Local{Engine: engine, backend: backend}
}

// ListExercises returns the exercise catalog.
func (l *Local) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return l.backend.ListExercises(ctx)
}
