// Package stats computes the training reports: period aggregates, progress
// series, insights, personal records, session comparison, muscle volume and
// calendar density. Every report is a read-only projection over the set log
// returned by a Store and is recomputed from scratch on each call.
package stats

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("liftlog/stats")

// Store is the read surface the engine needs. Both storage backends satisfy it.
type Store interface {
	FinishedSessions(ctx context.Context, f storage.SessionFilter) ([]models.WorkoutSession, error)
	GetSession(ctx context.Context, id string) (*models.WorkoutSession, error)
	QuerySetFacts(ctx context.Context, f storage.SetFilter) ([]models.SetFact, error)
	QueryExerciseUsage(ctx context.Context, f storage.SetFilter) ([]storage.ExerciseUsage, error)
}

// Engine runs reports against a Store.
type Engine struct {
	store Store
	loc   *time.Location
	log   *slog.Logger

	// Now is the clock used for period bounds and "this week". Tests replace it.
	Now func() time.Time
}

// NewEngine creates an engine. Calendar grouping (weeks, heatmap days) uses
// loc; a nil loc means time.Local.
func NewEngine(store Store, loc *time.Location, log *slog.Logger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, loc: loc, log: log, Now: time.Now}
}

// Location returns the zone used for calendar grouping.
func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) now() time.Time {
	return e.Now().In(e.loc)
}

// startReport opens a span for one report.
func (e *Engine) startReport(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "stats."+name, trace.WithAttributes(attrs...))
}

// finish records err on span, logs the outcome and returns err unchanged.
func (e *Engine) finish(span trace.Span, name string, rows int, err error) error {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("rows", rows))
	e.log.Debug("report computed", "report", name, "rows", rows)
	return nil
}

func periodAttr(p Period) attribute.KeyValue {
	return attribute.String("period", string(p))
}

// EstimateOneRM applies the Epley formula, rounded to the nearest unit.
func EstimateOneRM(weight, reps float64) float64 {
	return math.Round(weight * (1 + reps/30))
}

// startOfWeek returns Monday 00:00 of t's week in t's location.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
