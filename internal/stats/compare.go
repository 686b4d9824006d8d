package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// ErrSessionTypeMismatch is returned when comparing sessions of different
// workout types.
var ErrSessionTypeMismatch = errors.New("sessions have different workout types")

// DefaultComparableSessions is the ComparableSessions limit when none is given.
const DefaultComparableSessions = 30

// ComparableSession is a selectable entry for comparison.
type ComparableSession struct {
	ID    string             `json:"id"`
	Type  models.WorkoutType `json:"type"`
	Date  time.Time          `json:"date"`
	Label *string            `json:"label,omitempty"`
}

// ComparisonExercise summarizes one exercise within a session.
type ComparisonExercise struct {
	ExerciseID string  `json:"exercise_id"`
	Name       string  `json:"name"`
	Volume     float64 `json:"volume"`
	Sets       int     `json:"sets"`
	MaxWeight  float64 `json:"max_weight"`
}

// ComparisonSession is the full comparison payload of one session.
type ComparisonSession struct {
	ID           string               `json:"id"`
	Type         models.WorkoutType   `json:"type"`
	Label        *string              `json:"label,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   *time.Time           `json:"finished_at,omitempty"`
	DurationMin  int                  `json:"duration_min"`
	TotalVolume  float64              `json:"total_volume"`
	TotalSets    int                  `json:"total_sets"`
	TotalReps    float64              `json:"total_reps"`
	Rating       *int                 `json:"rating,omitempty"`
	AvgHeartRate *float64             `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *float64             `json:"max_heart_rate,omitempty"`
	Calories     *float64             `json:"calories,omitempty"`
	Exercises    []ComparisonExercise `json:"exercises"`
}

// ExerciseDelta is one exercise of session B against session A. Exercises
// absent from A are flagged IsNew and carry no deltas.
type ExerciseDelta struct {
	ComparisonExercise
	IsNew          bool     `json:"is_new"`
	VolumeDelta    *float64 `json:"volume_delta,omitempty"`
	SetsDelta      *int     `json:"sets_delta,omitempty"`
	MaxWeightDelta *float64 `json:"max_weight_delta,omitempty"`
}

// Comparison holds B minus A for every metric.
type Comparison struct {
	A             *ComparisonSession `json:"a"`
	B             *ComparisonSession `json:"b"`
	DurationDelta int                `json:"duration_delta"`
	VolumeDelta   float64            `json:"volume_delta"`
	SetsDelta     int                `json:"sets_delta"`
	RepsDelta     float64            `json:"reps_delta"`
	Exercises     []ExerciseDelta    `json:"exercises"`
}

// ComparableSessions lists recent finished sessions of type t, newest first.
func (e *Engine) ComparableSessions(ctx context.Context, t models.WorkoutType, limit int) ([]ComparableSession, error) {
	ctx, span := e.startReport(ctx, "comparable_sessions", attribute.String("type", string(t)))
	if limit <= 0 {
		limit = DefaultComparableSessions
	}

	sessions, err := e.store.FinishedSessions(ctx, storage.SessionFilter{Type: t, Limit: limit, Newest: true})
	if err != nil {
		return nil, e.finish(span, "comparable_sessions", 0, fmt.Errorf("loading sessions: %w", err))
	}

	out := make([]ComparableSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ComparableSession{ID: s.ID, Type: s.Type, Date: s.StartedAt, Label: s.Label})
	}
	return out, e.finish(span, "comparable_sessions", len(out), nil)
}

// SessionForComparison loads the comparison payload of one session. It
// returns nil without error when the session does not exist.
func (e *Engine) SessionForComparison(ctx context.Context, id string) (*ComparisonSession, error) {
	ctx, span := e.startReport(ctx, "session_for_comparison", attribute.String("session_id", id))
	out, err := e.sessionForComparison(ctx, id)
	n := 0
	if out != nil {
		n = out.TotalSets
	}
	return out, e.finish(span, "session_for_comparison", n, err)
}

func (e *Engine) sessionForComparison(ctx context.Context, id string) (*ComparisonSession, error) {
	s, err := e.store.GetSession(ctx, id)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{SessionID: id, IncludeUnfinished: true})
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}

	out := &ComparisonSession{
		ID:           s.ID,
		Type:         s.Type,
		Label:        s.Label,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		DurationMin:  int(math.Round(s.DurationMinutes())),
		Rating:       s.Rating,
		AvgHeartRate: s.AvgHeartRate,
		MaxHeartRate: s.MaxHeartRate,
		Calories:     s.Calories,
		Exercises:    []ComparisonExercise{},
	}

	// Facts are ordered by log position, so first appearance gives the
	// exercise's place in the session.
	index := make(map[string]int)
	for _, f := range facts {
		i, ok := index[f.ExerciseID]
		if !ok {
			i = len(out.Exercises)
			index[f.ExerciseID] = i
			out.Exercises = append(out.Exercises, ComparisonExercise{ExerciseID: f.ExerciseID, Name: f.ExerciseName})
		}
		ex := &out.Exercises[i]
		ex.Volume += f.Volume()
		ex.Sets++
		if w := f.EffectiveWeight(); w > ex.MaxWeight {
			ex.MaxWeight = w
		}

		out.TotalVolume += f.Volume()
		out.TotalSets++
		out.TotalReps += f.Reps
	}
	return out, nil
}

// CompareSessions loads both sessions and compares b against a. It returns
// nil without error when either session does not exist.
func (e *Engine) CompareSessions(ctx context.Context, aID, bID string) (*Comparison, error) {
	ctx, span := e.startReport(ctx, "compare_sessions",
		attribute.String("session_a", aID), attribute.String("session_b", bID))

	a, err := e.sessionForComparison(ctx, aID)
	if err != nil {
		return nil, e.finish(span, "compare_sessions", 0, err)
	}
	b, err := e.sessionForComparison(ctx, bID)
	if err != nil {
		return nil, e.finish(span, "compare_sessions", 0, err)
	}
	if a == nil || b == nil {
		return nil, e.finish(span, "compare_sessions", 0, nil)
	}
	if a.Type != b.Type {
		return nil, e.finish(span, "compare_sessions", 0,
			fmt.Errorf("%w: %s is %s, %s is %s", ErrSessionTypeMismatch, a.ID, a.Type, b.ID, b.Type))
	}

	c := Compare(a, b)
	return c, e.finish(span, "compare_sessions", len(c.Exercises), nil)
}

// Compare computes b minus a. Exercises are matched by name and listed in
// b's order; exercises only in a are not reported.
func Compare(a, b *ComparisonSession) *Comparison {
	c := &Comparison{
		A:             a,
		B:             b,
		DurationDelta: b.DurationMin - a.DurationMin,
		VolumeDelta:   b.TotalVolume - a.TotalVolume,
		SetsDelta:     b.TotalSets - a.TotalSets,
		RepsDelta:     b.TotalReps - a.TotalReps,
		Exercises:     make([]ExerciseDelta, 0, len(b.Exercises)),
	}

	before := make(map[string]ComparisonExercise, len(a.Exercises))
	for _, ex := range a.Exercises {
		before[ex.Name] = ex
	}

	for _, ex := range b.Exercises {
		d := ExerciseDelta{ComparisonExercise: ex}
		prev, ok := before[ex.Name]
		if !ok {
			d.IsNew = true
			c.Exercises = append(c.Exercises, d)
			continue
		}
		volume := ex.Volume - prev.Volume
		sets := ex.Sets - prev.Sets
		maxWeight := ex.MaxWeight - prev.MaxWeight
		d.VolumeDelta = &volume
		d.SetsDelta = &sets
		d.MaxWeightDelta = &maxWeight
		c.Exercises = append(c.Exercises, d)
	}
	return c
}
