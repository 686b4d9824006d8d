package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// PersonalRecord is the historical best set of one exercise.
type PersonalRecord struct {
	ExerciseID       string              `json:"exercise_id"`
	ExerciseName     string              `json:"exercise_name"`
	MuscleGroup      *models.MuscleGroup `json:"muscle_group,omitempty"`
	BestWeight       float64             `json:"best_weight"`
	BestRepsAtWeight float64             `json:"best_reps_at_weight"`
	Estimated1RM     float64             `json:"estimated_1rm"`
	SessionID        string              `json:"session_id"`
	Date             time.Time           `json:"date"`
}

// PersonalRecords returns exactly one record per exercise ever logged in a
// finished session: the set with the greatest effective weight, more reps
// winning ties and the earlier session winning exact duplicates. Records are
// ordered by estimated 1RM, highest first.
func (e *Engine) PersonalRecords(ctx context.Context) ([]PersonalRecord, error) {
	ctx, span := e.startReport(ctx, "personal_records")
	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{})
	if err != nil {
		return nil, e.finish(span, "personal_records", 0, fmt.Errorf("loading sets: %w", err))
	}

	records := personalRecords(facts)
	return records, e.finish(span, "personal_records", len(records), nil)
}

func personalRecords(facts []models.SetFact) []PersonalRecord {
	best := make(map[string]*PersonalRecord)
	var order []string

	for _, f := range facts {
		w := f.EffectiveWeight()
		pr, ok := best[f.ExerciseID]
		if !ok {
			pr = &PersonalRecord{ExerciseID: f.ExerciseID}
			best[f.ExerciseID] = pr
			order = append(order, f.ExerciseID)
		} else if w < pr.BestWeight || (w == pr.BestWeight && f.Reps <= pr.BestRepsAtWeight) {
			continue
		}
		pr.ExerciseName = f.ExerciseName
		pr.MuscleGroup = f.MuscleGroup
		pr.BestWeight = w
		pr.BestRepsAtWeight = f.Reps
		pr.SessionID = f.SessionID
		pr.Date = f.StartedAt
	}

	out := make([]PersonalRecord, 0, len(order))
	for _, id := range order {
		pr := best[id]
		pr.Estimated1RM = EstimateOneRM(pr.BestWeight, pr.BestRepsAtWeight)
		out = append(out, *pr)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Estimated1RM != out[j].Estimated1RM {
			return out[i].Estimated1RM > out[j].Estimated1RM
		}
		return out[i].ExerciseName < out[j].ExerciseName
	})
	return out
}
