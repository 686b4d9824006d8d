package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// ProgressPoint summarizes one exercise within one session.
type ProgressPoint struct {
	SessionID   string    `json:"session_id"`
	Date        time.Time `json:"date"`
	MaxWeight   float64   `json:"max_weight"`
	TotalVolume float64   `json:"total_volume"`
	TotalReps   float64   `json:"total_reps"`
	RepsAtMax   float64   `json:"reps_at_max"`
}

// OneRMPoint is the Epley estimate of the session's top set.
type OneRMPoint struct {
	SessionID    string    `json:"session_id"`
	Date         time.Time `json:"date"`
	Estimated1RM float64   `json:"estimated_1rm"`
}

// ExerciseProgress returns one point per finished session within p that
// contains the exercise, oldest first.
func (e *Engine) ExerciseProgress(ctx context.Context, exerciseID string, p Period) ([]ProgressPoint, error) {
	ctx, span := e.startReport(ctx, "exercise_progress", periodAttr(p), attribute.String("exercise_id", exerciseID))
	points, err := e.exerciseProgress(ctx, exerciseID, p)
	return points, e.finish(span, "exercise_progress", len(points), err)
}

// OneRMProgression returns the estimated one-rep max per session, using the
// same grouping as ExerciseProgress.
func (e *Engine) OneRMProgression(ctx context.Context, exerciseID string, p Period) ([]OneRMPoint, error) {
	ctx, span := e.startReport(ctx, "one_rm_progression", periodAttr(p), attribute.String("exercise_id", exerciseID))
	points, err := e.exerciseProgress(ctx, exerciseID, p)
	if err != nil {
		return nil, e.finish(span, "one_rm_progression", 0, err)
	}

	out := make([]OneRMPoint, len(points))
	for i, pt := range points {
		out[i] = OneRMPoint{
			SessionID:    pt.SessionID,
			Date:         pt.Date,
			Estimated1RM: EstimateOneRM(pt.MaxWeight, pt.RepsAtMax),
		}
	}
	return out, e.finish(span, "one_rm_progression", len(out), nil)
}

func (e *Engine) exerciseProgress(ctx context.Context, exerciseID string, p Period) ([]ProgressPoint, error) {
	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{
		Since:      p.Since(e.now()),
		ExerciseID: exerciseID,
	})
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}

	groups := groupBySession(facts)
	points := make([]ProgressPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, progressPoint(g))
	}
	return points, nil
}

// progressPoint reduces the sets of one session in two passes: the first
// finds the top effective weight, the second picks the most reps among the
// sets that reached it.
func progressPoint(sets []models.SetFact) ProgressPoint {
	pt := ProgressPoint{SessionID: sets[0].SessionID, Date: sets[0].StartedAt}
	for _, f := range sets {
		w := f.EffectiveWeight()
		if w > pt.MaxWeight {
			pt.MaxWeight = w
		}
		pt.TotalVolume += f.Volume()
		pt.TotalReps += f.Reps
	}
	for _, f := range sets {
		if f.EffectiveWeight() == pt.MaxWeight && f.Reps > pt.RepsAtMax {
			pt.RepsAtMax = f.Reps
		}
	}
	return pt
}

// groupBySession splits facts into per-session runs, preserving order. Facts
// arrive ordered by session start so each session is contiguous.
func groupBySession(facts []models.SetFact) [][]models.SetFact {
	var groups [][]models.SetFact
	for i, f := range facts {
		if i == 0 || facts[i-1].SessionID != f.SessionID {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], f)
	}
	return groups
}
