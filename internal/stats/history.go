package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// lastPerformanceSets caps LastPerformance.
const lastPerformanceSets = 20

// HistorySet is one set with its effective weight.
type HistorySet struct {
	Weight        float64          `json:"weight"`
	Reps          float64          `json:"reps"`
	Status        models.SetStatus `json:"status"`
	Order         int              `json:"order"`
	MuscleFailure bool             `json:"muscle_failure"`
}

// HistorySession groups the sets of one exercise within one session.
type HistorySession struct {
	SessionID    string             `json:"session_id"`
	Date         time.Time          `json:"date"`
	SessionType  models.WorkoutType `json:"session_type"`
	SessionLabel *string            `json:"session_label,omitempty"`
	Sets         []HistorySet       `json:"sets"`
}

// LastPerformanceSet is a recent set shown while logging the same exercise.
type LastPerformanceSet struct {
	HistorySet
	SessionID   string    `json:"session_id"`
	SessionDate time.Time `json:"session_date"`
}

// ExerciseHistory lists the finished sessions within p that contain the
// exercise, newest first, each with its sets in logged order.
func (e *Engine) ExerciseHistory(ctx context.Context, exerciseID string, p Period) ([]HistorySession, error) {
	ctx, span := e.startReport(ctx, "exercise_history", periodAttr(p), attribute.String("exercise_id", exerciseID))
	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{Since: p.Since(e.now()), ExerciseID: exerciseID})
	if err != nil {
		return nil, e.finish(span, "exercise_history", 0, fmt.Errorf("loading sets: %w", err))
	}

	groups := groupBySession(facts)
	out := make([]HistorySession, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		hs := HistorySession{
			SessionID:    g[0].SessionID,
			Date:         g[0].StartedAt,
			SessionType:  g[0].SessionType,
			SessionLabel: g[0].SessionLabel,
			Sets:         make([]HistorySet, 0, len(g)),
		}
		for _, f := range g {
			hs.Sets = append(hs.Sets, historySet(f))
		}
		out = append(out, hs)
	}
	return out, e.finish(span, "exercise_history", len(out), nil)
}

// LastPerformance returns up to 20 of the most recent sets of the exercise
// from finished sessions: newest session first, set order ascending within a
// session.
func (e *Engine) LastPerformance(ctx context.Context, exerciseID string) ([]LastPerformanceSet, error) {
	ctx, span := e.startReport(ctx, "last_performance", attribute.String("exercise_id", exerciseID))
	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{ExerciseID: exerciseID})
	if err != nil {
		return nil, e.finish(span, "last_performance", 0, fmt.Errorf("loading sets: %w", err))
	}

	groups := groupBySession(facts)
	out := []LastPerformanceSet{}
	for i := len(groups) - 1; i >= 0 && len(out) < lastPerformanceSets; i-- {
		g := append([]models.SetFact(nil), groups[i]...)
		sort.SliceStable(g, func(a, b int) bool { return g[a].SetOrder < g[b].SetOrder })
		for _, f := range g {
			if len(out) == lastPerformanceSets {
				break
			}
			out = append(out, LastPerformanceSet{
				HistorySet:  historySet(f),
				SessionID:   f.SessionID,
				SessionDate: f.StartedAt,
			})
		}
	}
	return out, e.finish(span, "last_performance", len(out), nil)
}

func historySet(f models.SetFact) HistorySet {
	return HistorySet{
		Weight:        f.EffectiveWeight(),
		Reps:          f.Reps,
		Status:        f.Status,
		Order:         f.SetOrder,
		MuscleFailure: f.MuscleFailure,
	}
}
